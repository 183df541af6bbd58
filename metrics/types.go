// Package metrics exposes the engine's public measurement types:
// per-iteration ExecutionMetrics and the AggregatedMetrics snapshot a
// PeriodicReporter or Exporter consumes.
package metrics

import "time"

// ExecutionMetrics is the public shape of one iteration's
// measurement. The collector records task.Result values directly and
// does not produce ExecutionMetrics.
type ExecutionMetrics struct {
	Iteration  int64
	StartedAt  time.Time
	Duration   time.Duration
	QueueWait  time.Duration
	Succeeded  bool
	ErrMessage string
}

// LatencyStats summarizes a latency distribution without requiring
// the caller to hold the underlying histogram, per SPEC_FULL.md §3.
type LatencyStats struct {
	Mean   time.Duration
	StdDev time.Duration
	Min    time.Duration
	Max    time.Duration
	Count  int64
}

// PercentileSet maps a requested percentile (0, 1] to the observed
// latency at that percentile.
type PercentileSet map[float64]time.Duration

// AggregatedMetrics is a point-in-time snapshot of a run's
// measurements, the payload handed to every Exporter and returned by
// Engine.Snapshot.
type AggregatedMetrics struct {
	RunID                    string
	GeneratedAt              time.Time
	Uptime                   time.Duration
	TotalExecutions          int64
	SuccessCount             int64
	FailureCount             int64
	SuccessRate              float64
	TargetTPS                float64
	ActualTPS                float64
	QueueSize                int64
	QueueWait                LatencyStats
	SuccessLatency           LatencyStats
	FailureLatency           LatencyStats
	SuccessPercentiles       PercentileSet
	FailurePercentiles       PercentileSet
	QueueWaitPercentiles     PercentileSet
	ShutdownCallbackFailures int64
}
