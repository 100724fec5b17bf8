package bitdex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    lookupHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordLookup(duration time.Duration, matches uint64, err error) {
//	    p.lookupHistogram.Observe(duration.Seconds())
//	}
type MetricsCollector interface {
	// RecordAppend is called after each PushBack or Append.
	// rows counts both value and skipped rows.
	RecordAppend(rows uint64, err error)

	// RecordLookup is called after each lookup. matches is the number of
	// selected rows.
	RecordLookup(duration time.Duration, matches uint64, err error)

	// RecordMerge is called after each AppendIndex.
	RecordMerge(rows uint64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(uint64, error)                {}
func (NoopMetricsCollector) RecordLookup(time.Duration, uint64, error) {}
func (NoopMetricsCollector) RecordMerge(uint64, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendRows       atomic.Int64
	AppendErrors     atomic.Int64
	LookupCount      atomic.Int64
	LookupErrors     atomic.Int64
	LookupMatches    atomic.Int64
	LookupTotalNanos atomic.Int64
	MergeCount       atomic.Int64
	MergeRows        atomic.Int64
	MergeErrors      atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(rows uint64, err error) {
	b.AppendCount.Add(1)
	if err != nil {
		b.AppendErrors.Add(1)
		return
	}
	b.AppendRows.Add(int64(rows))
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(duration time.Duration, matches uint64, err error) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
		return
	}
	b.LookupMatches.Add(int64(matches))
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(rows uint64, _ time.Duration, err error) {
	b.MergeCount.Add(1)
	if err != nil {
		b.MergeErrors.Add(1)
		return
	}
	b.MergeRows.Add(int64(rows))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:    b.AppendCount.Load(),
		AppendRows:     b.AppendRows.Load(),
		AppendErrors:   b.AppendErrors.Load(),
		LookupCount:    b.LookupCount.Load(),
		LookupErrors:   b.LookupErrors.Load(),
		LookupMatches:  b.LookupMatches.Load(),
		LookupAvgNanos: b.getAvgLookupNanos(),
		MergeCount:     b.MergeCount.Load(),
		MergeRows:      b.MergeRows.Load(),
		MergeErrors:    b.MergeErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgLookupNanos() int64 {
	count := b.LookupCount.Load()
	if count == 0 {
		return 0
	}
	return b.LookupTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount    int64
	AppendRows     int64
	AppendErrors   int64
	LookupCount    int64
	LookupErrors   int64
	LookupMatches  int64
	LookupAvgNanos int64
	MergeCount     int64
	MergeRows      int64
	MergeErrors    int64
}
