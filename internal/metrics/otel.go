package metrics

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelProviderOptions configures an OTelProvider.
type OTelProviderOptions struct {
	ServiceName      string
	CardinalityLimit int
	// Reader lets a caller supply its own metric.Reader (e.g. an OTLP
	// exporter it owns); when nil the provider runs with no readers,
	// which is enough to exercise the instrument API without standing
	// up an export pipeline — consistent with the non-goal excluding
	// OTel exporter implementations.
	Reader sdkmetric.Reader
}

// OTelProvider is a Provider backed by the OpenTelemetry metrics SDK,
// ported from the teacher's telemetry/metrics/otel_provider.go.
type OTelProvider struct {
	mp    *sdkmetric.MeterProvider
	meter metric.Meter

	mu          sync.Mutex
	cardinality int
	cardLimit   int
	exceeded    bool
}

// NewOTelProvider constructs an OTelProvider.
func NewOTelProvider(opts OTelProviderOptions) *OTelProvider {
	var sdkOpts []sdkmetric.Option
	if opts.Reader != nil {
		sdkOpts = append(sdkOpts, sdkmetric.WithReader(opts.Reader))
	}
	mp := sdkmetric.NewMeterProvider(sdkOpts...)
	name := opts.ServiceName
	if name == "" {
		name = "vajrapulse"
	}
	return &OTelProvider{mp: mp, meter: mp.Meter(name), cardLimit: opts.CardinalityLimit}
}

func buildOTelName(name string) string {
	return strings.ReplaceAll(name, "_", ".")
}

func toAttributes(labels []string, values []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for i, k := range labels {
		if i < len(values) {
			attrs = append(attrs, attribute.String(k, values[i]))
		}
	}
	return attrs
}

func (p *OTelProvider) trackCardinality(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cardinality += n
	if p.cardLimit > 0 && p.cardinality > p.cardLimit {
		p.exceeded = true
	}
}

// Health implements Provider.
func (p *OTelProvider) Health(ctx context.Context) error {
	p.mu.Lock()
	exceeded := p.exceeded
	p.mu.Unlock()
	if exceeded {
		return errCardinalityExceeded
	}
	return nil
}

// Shutdown releases the underlying MeterProvider's resources.
func (p *OTelProvider) Shutdown(ctx context.Context) error { return p.mp.Shutdown(ctx) }

// NewCounter implements Provider.
func (p *OTelProvider) NewCounter(opts CounterOpts) (Counter, error) {
	c, err := p.meter.Float64Counter(buildOTelName(opts.Name), metric.WithDescription(opts.Help))
	if err != nil {
		return nil, err
	}
	return &otelCounter{c: c, labels: opts.Labels, provider: p}, nil
}

// NewGauge implements Provider. OTel has no native settable gauge, so
// it is modeled with an UpDownCounter and deltas from the last
// observed value, the same approach the teacher's otel_provider.go
// takes.
func (p *OTelProvider) NewGauge(opts GaugeOpts) (Gauge, error) {
	g, err := p.meter.Float64UpDownCounter(buildOTelName(opts.Name), metric.WithDescription(opts.Help))
	if err != nil {
		return nil, err
	}
	return &otelGauge{g: g, labels: opts.Labels, provider: p, last: map[string]float64{}}, nil
}

// NewHistogram implements Provider.
func (p *OTelProvider) NewHistogram(opts HistogramOpts) (Histogram, error) {
	h, err := p.meter.Float64Histogram(buildOTelName(opts.Name), metric.WithDescription(opts.Help))
	if err != nil {
		return nil, err
	}
	return &otelHistogram{h: h, labels: opts.Labels, provider: p}, nil
}

// NewTimer implements Provider.
func (p *OTelProvider) NewTimer(opts CommonOpts, labels []string) (Timer, error) {
	h, err := p.NewHistogram(HistogramOpts{CommonOpts: opts, Labels: labels})
	if err != nil {
		return nil, err
	}
	return &otelTimer{h: h.(*otelHistogram)}, nil
}

type otelCounter struct {
	c        metric.Float64Counter
	labels   []string
	provider *OTelProvider
}

func (c *otelCounter) Inc(labelValues ...string) { c.Add(1, labelValues...) }
func (c *otelCounter) Add(v float64, labelValues ...string) {
	c.provider.trackCardinality(1)
	c.c.Add(context.Background(), v, metric.WithAttributes(toAttributes(c.labels, labelValues)...))
}

type otelGauge struct {
	g        metric.Float64UpDownCounter
	labels   []string
	provider *OTelProvider
	mu       sync.Mutex
	last     map[string]float64
}

func (g *otelGauge) Set(v float64, labelValues ...string) {
	g.provider.trackCardinality(1)
	key := strings.Join(labelValues, "\x1f")
	g.mu.Lock()
	delta := v - g.last[key]
	g.last[key] = v
	g.mu.Unlock()
	g.g.Add(context.Background(), delta, metric.WithAttributes(toAttributes(g.labels, labelValues)...))
}

type otelHistogram struct {
	h        metric.Float64Histogram
	labels   []string
	provider *OTelProvider
}

func (h *otelHistogram) Observe(v float64, labelValues ...string) {
	h.provider.trackCardinality(1)
	h.h.Record(context.Background(), v, metric.WithAttributes(toAttributes(h.labels, labelValues)...))
}

type otelTimer struct{ h *otelHistogram }

func (t *otelTimer) ObserveDuration(seconds float64, labelValues ...string) {
	t.h.Observe(seconds, labelValues...)
}
