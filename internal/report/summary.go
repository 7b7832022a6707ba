package report

import (
	"time"

	"github.com/torosent/pathlength/internal/metrics"
	"github.com/torosent/pathlength/internal/threshold"
)

// Metadata describes the run that produced a report.
type Metadata struct {
	RunID       string    `json:"run_id"`
	ULID        string    `json:"ulid"`
	GDSPath     string    `json:"gds_path"`
	Cell        string    `json:"cell,omitempty"`
	Traceparent string    `json:"traceparent,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	// ElapsedSeconds is the wall-clock time spent measuring.
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// ThresholdSummary counts check outcomes.
type ThresholdSummary struct {
	Total   int                   `json:"total"`
	Passed  int                   `json:"passed"`
	Failed  int                   `json:"failed"`
	Results []ThresholdResultJSON `json:"results"`
}

// ThresholdResultJSON is the serialized form of one check outcome.
type ThresholdResultJSON struct {
	Threshold string  `json:"threshold"`
	Metric    string  `json:"metric"`
	Aggregate string  `json:"aggregate"`
	Operator  string  `json:"operator"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
	Message   string  `json:"message"`
}

// Summary is everything the JSON and HTML reports render.
type Summary struct {
	Metadata Metadata          `json:"metadata"`
	Rows     []Row             `json:"rows"`
	Stats    metrics.Stats     `json:"stats"`
	Checks   *ThresholdSummary `json:"checks,omitempty"`
}

// NewSummary assembles a Summary. Checks is nil when no check was configured.
func NewSummary(meta Metadata, t Table, stats metrics.Stats, results []threshold.Result) Summary {
	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	return Summary{
		Metadata: meta,
		Rows:     rows,
		Stats:    stats,
		Checks:   summarizeThresholds(results),
	}
}

func summarizeThresholds(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{
		Total:   len(results),
		Results: make([]ThresholdResultJSON, len(results)),
	}
	for i, tr := range results {
		summary.Results[i] = ThresholdResultJSON{
			Threshold: tr.Threshold.Raw,
			Metric:    tr.Threshold.Metric,
			Aggregate: tr.Threshold.Aggregate,
			Operator:  tr.Threshold.Operator,
			Expected:  tr.Threshold.Value,
			Actual:    tr.Actual,
			Pass:      tr.Pass,
			Message:   tr.Message,
		}
		if tr.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}
