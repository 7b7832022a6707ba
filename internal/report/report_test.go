package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/torosent/pathlength/internal/report"
)

func sampleTable() report.Table {
	return report.Table{Rows: []report.Row{
		{Input: "i0", Output: "o0", Length: 1000.1415926535898, Segments: 3, Bends: 2},
		{Input: "i1", Output: "o1", Length: 0.1 + 0.2, Segments: 1, Bends: 0},
		{Input: "in,2", Output: `out"2`, Length: 1e-9, Segments: 5, Bends: 4},
	}}
}

func TestWriteCSVHeaderAndNoIndex(t *testing.T) {
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, sampleTable()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), buf.String())
	}
	if lines[0] != "input,output,length,segments,bends" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "i0,o0,1000.1415926535898,3,2" {
		t.Errorf("first row = %q", lines[1])
	}
	if lines[2] != "i1,o1,0.30000000000000004,1,0" {
		t.Errorf("second row = %q", lines[2])
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final_report_length.csv")
	want := sampleTable()

	if err := report.WriteCSVFile(path, want); err != nil {
		t.Fatalf("WriteCSVFile() error = %v", err)
	}
	got, err := report.ReadCSVFile(path)
	if err != nil {
		t.Fatalf("ReadCSVFile() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(path, []byte(strings.Repeat("stale\n", 100)), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := report.WriteCSVFile(path, report.Table{}); err != nil {
		t.Fatalf("WriteCSVFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "input,output,length,segments,bends\n" {
		t.Errorf("file = %q, want header only", data)
	}
}

func TestReadCSVColumnOrderAndOptionalColumns(t *testing.T) {
	input := "length,output,input\n12.5,o3,i3\n"
	got, err := report.ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	want := report.Table{Rows: []report.Row{{Input: "i3", Output: "o3", Length: 12.5}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadCSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty"},
		{"missing column", "input,output\ni0,o0\n", `missing column "length"`},
		{"bad length", "input,output,length\ni0,o0,abc\n", "row 2: length"},
		{"bad bends", "input,output,length,segments,bends\ni0,o0,1,1,x\n", "row 2: bends"},
		{"short row", "input,output,length\ni0,o0\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := report.ReadCSV(strings.NewReader(tt.input))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("ReadCSV() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	var buf bytes.Buffer
	table := report.Table{Rows: []report.Row{
		{Input: "i0", Output: "o0", Length: 1000.5, Segments: 3, Bends: 2},
		{Input: "i10", Output: "o10", Length: 12, Segments: 1, Bends: 0},
	}}
	if err := report.Format(&buf, table); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, col := range []string{"input", "output", "length", "segments", "bends"} {
		if !strings.Contains(lines[0], col) {
			t.Errorf("header %q missing %q", lines[0], col)
		}
	}
	if !strings.Contains(lines[1], "1000.5") || !strings.Contains(lines[2], "o10") {
		t.Errorf("rows not rendered:\n%s", buf.String())
	}
	if len(lines[0]) != len(lines[1]) || len(lines[1]) != len(lines[2]) {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestTableHelpers(t *testing.T) {
	table := sampleTable()
	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if diff := cmp.Diff([]float64{1000.1415926535898, 0.30000000000000004, 1e-9}, table.Lengths()); diff != "" {
		t.Errorf("Lengths() mismatch (-want +got):\n%s", diff)
	}
	if got := report.FormatLength(1e-9); got != "0.000000001" {
		t.Errorf("FormatLength(1e-9) = %q", got)
	}
}
