package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/torosent/pathlength/internal/metrics"
	"github.com/torosent/pathlength/internal/report"
	"github.com/torosent/pathlength/internal/threshold"
)

func sampleSummary(t *testing.T) report.Summary {
	t.Helper()
	table := report.Table{Rows: []report.Row{
		{Input: "i0", Output: "o0", Length: 1000.5, Segments: 3, Bends: 2},
		{Input: "i1", Output: "o1", Length: 990.25, Segments: 3, Bends: 2},
	}}
	collector := metrics.NewCollector()
	for _, r := range table.Rows {
		collector.Record(r.Length, r.Bends)
	}
	checks, err := threshold.ParseMultiple([]string{"skew:abs < 20", "length:max < 1000"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	stats := collector.Stats()
	results := threshold.NewEvaluator(checks).Evaluate(stats)

	meta := report.Metadata{
		RunID:          "length_run_2024_01_02_03_04_05",
		ULID:           "01HK5Z8JQ0000000000000000",
		GDSPath:        "/data/demo.gds",
		Cell:           "connect_bundle",
		GeneratedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		ElapsedSeconds: 0.25,
	}
	return report.NewSummary(meta, table, stats, results)
}

func TestNewSummaryCountsChecks(t *testing.T) {
	s := sampleSummary(t)
	if s.Checks == nil {
		t.Fatal("Checks = nil, want summary")
	}
	if s.Checks.Total != 2 || s.Checks.Passed != 1 || s.Checks.Failed != 1 {
		t.Errorf("Checks = %+v", s.Checks)
	}

	empty := report.NewSummary(report.Metadata{}, report.Table{}, metrics.Stats{}, nil)
	if empty.Checks != nil {
		t.Errorf("Checks = %+v, want nil without results", empty.Checks)
	}
	if empty.Rows == nil {
		t.Error("Rows = nil, want empty slice")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, sampleSummary(t)); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	doc := buf.String()
	if !gjson.Valid(doc) {
		t.Fatalf("invalid JSON:\n%s", doc)
	}

	checks := map[string]interface{}{
		"metadata.run_id":         "length_run_2024_01_02_03_04_05",
		"metadata.cell":           "connect_bundle",
		"metadata.generated_at":   "2024-01-02T03:04:05Z",
		"rows.#":                  int64(2),
		"rows.0.input":            "i0",
		"rows.1.length":           990.25,
		"stats.routes":            int64(2),
		"stats.skew":              10.25,
		"checks.failed":           int64(1),
		"checks.results.1.pass":   false,
		"checks.results.0.metric": "skew",
	}
	for path, want := range checks {
		got := gjson.Get(doc, path)
		if !got.Exists() {
			t.Errorf("%s missing", path)
			continue
		}
		if got.Value() != want {
			switch w := want.(type) {
			case int64:
				if got.Int() == w {
					continue
				}
			}
			t.Errorf("%s = %v, want %v", path, got.Value(), want)
		}
	}
	if gjson.Get(doc, "metadata.traceparent").Exists() {
		t.Error("empty traceparent should be omitted")
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, sampleSummary(t)); err != nil {
		t.Fatalf("WriteHTML() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"Path Length Report",
		"length_run_2024_01_02_03_04_05",
		"connect_bundle",
		"1000.5",
		"Checks (1/2 Passed)",
		"✗ FAIL",
		"uPlot",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestWriteHTMLEscapesLabels(t *testing.T) {
	s := report.NewSummary(report.Metadata{RunID: "r"}, report.Table{Rows: []report.Row{
		{Input: "<script>alert(1)</script>", Output: "o0", Length: 1},
	}}, metrics.Stats{Routes: 1}, nil)

	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, s); err != nil {
		t.Fatalf("WriteHTML() error = %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("label text was not escaped")
	}
}

func TestWriteHTMLNoRoutes(t *testing.T) {
	s := report.NewSummary(report.Metadata{RunID: "r"}, report.Table{}, metrics.Stats{}, nil)
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, s); err != nil {
		t.Fatalf("WriteHTML() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No routes were measured.") {
		t.Error("empty report should say no routes were measured")
	}
	if strings.Contains(buf.String(), "length-chart") && strings.Contains(buf.String(), "new uPlot") {
		t.Error("empty report should not render a chart")
	}
}

func TestWriteReportFiles(t *testing.T) {
	dir := t.TempDir()
	s := sampleSummary(t)
	jsonPath := filepath.Join(dir, "report.json")
	htmlPath := filepath.Join(dir, "report.html")

	if err := report.WriteJSONFile(jsonPath, s); err != nil {
		t.Fatalf("WriteJSONFile() error = %v", err)
	}
	if err := report.WriteHTMLFile(htmlPath, s); err != nil {
		t.Fatalf("WriteHTMLFile() error = %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if gjson.GetBytes(data, "rows.#").Int() != 2 {
		t.Errorf("JSON file rows = %s", gjson.GetBytes(data, "rows.#").Raw)
	}
	if info, err := os.Stat(htmlPath); err != nil || info.Size() == 0 {
		t.Errorf("HTML file not written: %v", err)
	}
}
