package metrics_test

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/torosent/pathlength/internal/metrics"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCollectorLengthStats(t *testing.T) {
	c := metrics.NewCollector()

	c.Record(10, 2)
	c.Record(20, 2)
	c.Record(30, 4)
	c.Record(40, 0)
	c.Record(50, 2)

	stats := c.Stats()

	if stats.Routes != 5 {
		t.Errorf("expected routes 5, got %d", stats.Routes)
	}
	if stats.MinLength != 10 {
		t.Errorf("expected min 10, got %g", stats.MinLength)
	}
	if stats.MaxLength != 50 {
		t.Errorf("expected max 50, got %g", stats.MaxLength)
	}
	if stats.MeanLength != 30 {
		t.Errorf("expected mean 30, got %g", stats.MeanLength)
	}
	if stats.TotalLength != 150 {
		t.Errorf("expected total 150, got %g", stats.TotalLength)
	}
	if stats.Skew != 40 {
		t.Errorf("expected skew 40, got %g", stats.Skew)
	}
	if stats.MaxBends != 4 {
		t.Errorf("expected max bends 4, got %d", stats.MaxBends)
	}
	if stats.MeanBends != 2 {
		t.Errorf("expected mean bends 2, got %g", stats.MeanBends)
	}
}

func TestPercentilesCalculations(t *testing.T) {
	c := metrics.NewCollector()

	// 100 samples: 1, 2, ..., 100 user units.
	for i := 1; i <= 100; i++ {
		c.Record(float64(i), 2)
	}

	stats := c.Stats()

	if !approx(stats.P50Length, 50, 1) {
		t.Errorf("expected P50 ~50, got %g", stats.P50Length)
	}
	if !approx(stats.P90Length, 90, 1) {
		t.Errorf("expected P90 ~90, got %g", stats.P90Length)
	}
	if !approx(stats.P99Length, 99, 1) {
		t.Errorf("expected P99 ~99, got %g", stats.P99Length)
	}
	if stats.P99Length > stats.MaxLength {
		t.Errorf("P99 %g exceeds max %g", stats.P99Length, stats.MaxLength)
	}
}

func TestSingleRouteHasZeroSkew(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(1234.5678, 3)

	stats := c.Stats()
	if stats.Skew != 0 {
		t.Errorf("expected skew 0, got %g", stats.Skew)
	}
	if stats.P50Length != 1234.5678 || stats.P99Length != 1234.5678 {
		t.Errorf("percentiles = %g/%g, want clamped to the single length", stats.P50Length, stats.P99Length)
	}
}

func TestEmptyCollector(t *testing.T) {
	stats := metrics.NewCollector().Stats()
	if stats != (metrics.Stats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestZeroLengthRoute(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(0, 0)
	c.Record(10, 2)

	stats := c.Stats()
	if stats.MinLength != 0 || stats.Routes != 2 {
		t.Errorf("stats = %+v, want min 0 over 2 routes", stats)
	}
}

func TestConcurrentRecord(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Record(5, 1)
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	if stats.Routes != 800 {
		t.Errorf("expected 800 routes, got %d", stats.Routes)
	}
	if !approx(stats.TotalLength, 4000, 1e-9) {
		t.Errorf("expected total 4000, got %g", stats.TotalLength)
	}
}

func TestReset(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(10, 2)
	c.Reset()
	if stats := c.Stats(); stats.Routes != 0 || stats.MaxLength != 0 {
		t.Errorf("expected empty stats after Reset, got %+v", stats)
	}
}

func TestStatsJSONFieldNames(t *testing.T) {
	c := metrics.NewCollector()
	c.Record(10, 2)

	data, err := json.Marshal(c.Stats())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"routes", "total_length", "p50_length", "skew", "max_bends"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing %q: %s", key, data)
		}
	}
}
