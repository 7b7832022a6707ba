package metrics

import (
	"math"
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Resolution is the number of histogram steps per user unit. With the usual
// micrometre user unit this records lengths in nanometres.
const Resolution = 1000

// Collector records per-route lengths in a thread-safe manner.
type Collector struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	routes    int64
	minLength float64
	maxLength float64
	sumLength float64
	maxBends  int
	sumBends  int64
}

// Stats represents aggregated route statistics.
type Stats struct {
	Routes      int64   `json:"routes"`
	TotalLength float64 `json:"total_length"`
	MinLength   float64 `json:"min_length"`
	MaxLength   float64 `json:"max_length"`
	MeanLength  float64 `json:"mean_length"`
	P50Length   float64 `json:"p50_length"`
	P90Length   float64 `json:"p90_length"`
	P99Length   float64 `json:"p99_length"`
	// Skew is the spread between the longest and shortest route.
	Skew      float64 `json:"skew"`
	MaxBends  int     `json:"max_bends"`
	MeanBends float64 `json:"mean_bends"`
}

func NewCollector() *Collector {
	// Track lengths from one step up to 10^7 user units with 3 significant figures.
	h := hdrhistogram.New(1, 10_000_000*Resolution, 3)
	return &Collector{hist: h}
}

// Record records a single route's length and bend count.
func (c *Collector) Record(length float64, bends int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if length > 0 && !math.IsInf(length, 0) {
		v := int64(math.Round(length * Resolution))
		if v < c.hist.LowestTrackableValue() {
			v = c.hist.LowestTrackableValue()
		}
		if v > c.hist.HighestTrackableValue() {
			v = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(v)
	}

	if c.routes == 0 || length < c.minLength {
		c.minLength = length
	}
	if c.routes == 0 || length > c.maxLength {
		c.maxLength = length
	}
	c.routes++
	c.sumLength += length

	if bends > c.maxBends {
		c.maxBends = bends
	}
	c.sumBends += int64(bends)
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Routes:      c.routes,
		TotalLength: c.sumLength,
		MinLength:   c.minLength,
		MaxLength:   c.maxLength,
		MaxBends:    c.maxBends,
	}
	if c.routes == 0 {
		return stats
	}

	stats.MeanLength = c.sumLength / float64(c.routes)
	stats.MeanBends = float64(c.sumBends) / float64(c.routes)
	stats.Skew = c.maxLength - c.minLength

	if c.hist.TotalCount() > 0 {
		stats.P50Length = c.quantile(50)
		stats.P90Length = c.quantile(90)
		stats.P99Length = c.quantile(99)
	}
	return stats
}

// quantile clamps the histogram estimate into the exact observed range.
func (c *Collector) quantile(q float64) float64 {
	v := float64(c.hist.ValueAtQuantile(q)) / Resolution
	return math.Min(math.Max(v, c.minLength), c.maxLength)
}

// Reset clears all recorded observations.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hist.Reset()
	c.routes = 0
	c.minLength, c.maxLength, c.sumLength = 0, 0, 0
	c.maxBends, c.sumBends = 0, 0
}
