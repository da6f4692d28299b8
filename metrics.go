package conceptx

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector receives per-stage measurements of clustering runs.
// Implement this interface to integrate with monitoring systems like
// Prometheus; metrics/prometheus provides one.
type MetricsCollector interface {
	// RecordIndexBuild is called after an index was built or loaded.
	RecordIndexBuild(kind string, points int, reused bool, duration time.Duration, err error)

	// RecordThreshold is called once τ is known.
	RecordThreshold(tau float64, estimated bool, duration time.Duration)

	// RecordStage1 is called after the clique pass.
	RecordStage1(mode string, cliques, queries, expansions int, duration time.Duration, err error)

	// RecordStage2 is called after the centroid clustering.
	RecordStage2(algorithm string, k int, duration time.Duration, err error)

	// RecordRun is called at the end of every run.
	RecordRun(points int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexBuild(string, int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordThreshold(float64, bool, time.Duration)             {}
func (NoopMetricsCollector) RecordStage1(string, int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordStage2(string, int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordRun(int, time.Duration, error)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexBuilds     atomic.Int64
	IndexReuses     atomic.Int64
	IndexErrors     atomic.Int64
	IndexTotalNanos atomic.Int64
	Thresholds      atomic.Int64
	Estimated       atomic.Int64
	Stage1Count     atomic.Int64
	Stage1Errors    atomic.Int64
	Stage1Nanos     atomic.Int64
	Cliques         atomic.Int64
	Queries         atomic.Int64
	Expansions      atomic.Int64
	Stage2Count     atomic.Int64
	Stage2Errors    atomic.Int64
	Stage2Nanos     atomic.Int64
	RunCount        atomic.Int64
	RunErrors       atomic.Int64
	RunTotalNanos   atomic.Int64
	PointsClustered atomic.Int64

	mu      sync.Mutex
	lastTau float64
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_ string, _ int, reused bool, duration time.Duration, err error) {
	if err != nil {
		b.IndexErrors.Add(1)
		return
	}
	if reused {
		b.IndexReuses.Add(1)
		return
	}
	b.IndexBuilds.Add(1)
	b.IndexTotalNanos.Add(duration.Nanoseconds())
}

// RecordThreshold implements MetricsCollector.
func (b *BasicMetricsCollector) RecordThreshold(tau float64, estimated bool, _ time.Duration) {
	b.Thresholds.Add(1)
	if estimated {
		b.Estimated.Add(1)
	}
	b.mu.Lock()
	b.lastTau = tau
	b.mu.Unlock()
}

// RecordStage1 implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage1(_ string, cliques, queries, expansions int, duration time.Duration, err error) {
	b.Stage1Count.Add(1)
	b.Stage1Nanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Stage1Errors.Add(1)
		return
	}
	b.Cliques.Add(int64(cliques))
	b.Queries.Add(int64(queries))
	b.Expansions.Add(int64(expansions))
}

// RecordStage2 implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage2(_ string, _ int, duration time.Duration, err error) {
	b.Stage2Count.Add(1)
	b.Stage2Nanos.Add(duration.Nanoseconds())
	if err != nil {
		b.Stage2Errors.Add(1)
	}
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(points int, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	b.PointsClustered.Add(int64(points))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	b.mu.Lock()
	tau := b.lastTau
	b.mu.Unlock()

	return BasicMetricsStats{
		IndexBuilds:     b.IndexBuilds.Load(),
		IndexReuses:     b.IndexReuses.Load(),
		IndexErrors:     b.IndexErrors.Load(),
		IndexAvgNanos:   avg(b.IndexTotalNanos.Load(), b.IndexBuilds.Load()),
		Thresholds:      b.Thresholds.Load(),
		Estimated:       b.Estimated.Load(),
		LastTau:         tau,
		Stage1Count:     b.Stage1Count.Load(),
		Stage1Errors:    b.Stage1Errors.Load(),
		Stage1AvgNanos:  avg(b.Stage1Nanos.Load(), b.Stage1Count.Load()),
		Cliques:         b.Cliques.Load(),
		Queries:         b.Queries.Load(),
		Expansions:      b.Expansions.Load(),
		Stage2Count:     b.Stage2Count.Load(),
		Stage2Errors:    b.Stage2Errors.Load(),
		Stage2AvgNanos:  avg(b.Stage2Nanos.Load(), b.Stage2Count.Load()),
		RunCount:        b.RunCount.Load(),
		RunErrors:       b.RunErrors.Load(),
		RunAvgNanos:     avg(b.RunTotalNanos.Load(), b.RunCount.Load()),
		PointsClustered: b.PointsClustered.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexBuilds     int64
	IndexReuses     int64
	IndexErrors     int64
	IndexAvgNanos   int64
	Thresholds      int64
	Estimated       int64
	LastTau         float64
	Stage1Count     int64
	Stage1Errors    int64
	Stage1AvgNanos  int64
	Cliques         int64
	Queries         int64
	Expansions      int64
	Stage2Count     int64
	Stage2Errors    int64
	Stage2AvgNanos  int64
	RunCount        int64
	RunErrors       int64
	RunAvgNanos     int64
	PointsClustered int64
}
