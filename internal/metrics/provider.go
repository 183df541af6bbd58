// Package metrics defines the meter-registry abstraction the engine
// registers counters, gauges, and histograms against, ported from the
// teacher's internal/telemetry/metrics Provider interface so the
// engine can swap Prometheus, OTel, or no-op backends without
// touching call sites.
package metrics

import "context"

// CommonOpts names and documents an instrument.
type CommonOpts struct {
	Name string
	Help string
}

// CounterOpts configures a Counter.
type CounterOpts struct {
	CommonOpts
	Labels []string
}

// GaugeOpts configures a Gauge.
type GaugeOpts struct {
	CommonOpts
	Labels []string
}

// HistogramOpts configures a Histogram.
type HistogramOpts struct {
	CommonOpts
	Labels  []string
	Buckets []float64
}

// Counter is a monotonically increasing instrument.
type Counter interface {
	Inc(labelValues ...string)
	Add(v float64, labelValues ...string)
}

// Gauge is a point-in-time instrument that can move in either
// direction.
type Gauge interface {
	Set(v float64, labelValues ...string)
}

// Histogram records a distribution of observed values.
type Histogram interface {
	Observe(v float64, labelValues ...string)
}

// Timer is a convenience Histogram specialization for durations.
type Timer interface {
	ObserveDuration(seconds float64, labelValues ...string)
}

// Provider is a meter registry: it creates named instruments and
// reports its own health.
type Provider interface {
	NewCounter(opts CounterOpts) (Counter, error)
	NewGauge(opts GaugeOpts) (Gauge, error)
	NewHistogram(opts HistogramOpts) (Histogram, error)
	NewTimer(opts CommonOpts, labels []string) (Timer, error)
	Health(ctx context.Context) error
}
