package metrics

import "context"

type noopProvider struct{}

// NewNoopProvider returns a Provider whose instruments discard every
// observation, used when observability.metricsEnabled is false.
func NewNoopProvider() Provider { return noopProvider{} }

func (noopProvider) NewCounter(CounterOpts) (Counter, error)        { return noopInstrument{}, nil }
func (noopProvider) NewGauge(GaugeOpts) (Gauge, error)              { return noopInstrument{}, nil }
func (noopProvider) NewHistogram(HistogramOpts) (Histogram, error)  { return noopInstrument{}, nil }
func (noopProvider) NewTimer(CommonOpts, []string) (Timer, error)   { return noopInstrument{}, nil }
func (noopProvider) Health(context.Context) error                  { return nil }

type noopInstrument struct{}

func (noopInstrument) Inc(...string)                  {}
func (noopInstrument) Add(float64, ...string)         {}
func (noopInstrument) Set(float64, ...string)         {}
func (noopInstrument) Observe(float64, ...string)     {}
func (noopInstrument) ObserveDuration(float64, ...string) {}
