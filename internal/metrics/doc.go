// Package metrics aggregates measured route lengths into summary statistics.
//
// The central [Collector] type receives one observation per measured route:
//
//	collector := metrics.NewCollector()
//	collector.Record(row.Length, row.Bends)
//	stats := collector.Stats()
//
// Lengths are in layout user units. Percentiles come from an HDR histogram
// holding lengths scaled by [Resolution], so they carry three significant
// figures; minimum, maximum, mean and total are exact.
//
// # Thread Safety
//
// The Collector guards its state with a mutex. It's safe to call Record from
// multiple goroutines.
package metrics
