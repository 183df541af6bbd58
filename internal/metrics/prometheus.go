package metrics

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var fqNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// PrometheusProviderOptions configures a PrometheusProvider.
type PrometheusProviderOptions struct {
	Registry         *prometheus.Registry
	Namespace        string
	CardinalityLimit int
	// CollectRuntimeMetrics registers the Go and process collectors,
	// exposing runtime health (heap, goroutines, GC pauses) alongside
	// the run's own AggregatedMetrics, per SPEC_FULL.md §4.1.
	CollectRuntimeMetrics bool
}

// PrometheusProvider is a Provider backed by client_golang, ported
// from the teacher's telemetry/metrics/prometheus.go.
type PrometheusProvider struct {
	reg       *prometheus.Registry
	namespace string
	cardLimit int

	mu          sync.Mutex
	cardinality int
	exceeded    bool
}

// NewPrometheusProvider constructs a PrometheusProvider, registering
// a fresh *prometheus.Registry when one isn't supplied.
func NewPrometheusProvider(opts PrometheusProviderOptions) *PrometheusProvider {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if opts.CollectRuntimeMetrics {
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return &PrometheusProvider{reg: reg, namespace: opts.Namespace, cardLimit: opts.CardinalityLimit}
}

// MetricsHandler returns an http.Handler serving this provider's
// registry in the Prometheus exposition format.
func (p *PrometheusProvider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// Health implements Provider.
func (p *PrometheusProvider) Health(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exceeded {
		return fmt.Errorf("prometheus provider cardinality limit exceeded (%d)", p.cardLimit)
	}
	return nil
}

func (p *PrometheusProvider) buildFQName(name string) string {
	full := name
	if p.namespace != "" {
		full = p.namespace + "_" + name
	}
	return fqNamePattern.ReplaceAllString(strings.ReplaceAll(full, ".", "_"), "_")
}

func (p *PrometheusProvider) trackCardinality(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cardinality += n
	if p.cardLimit > 0 && p.cardinality > p.cardLimit {
		p.exceeded = true
	}
}

// NewCounter implements Provider.
func (p *PrometheusProvider) NewCounter(opts CounterOpts) (Counter, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: p.buildFQName(opts.Name),
		Help: opts.Help,
	}, opts.Labels)
	if err := registerOrReuse(p.reg, vec); err != nil {
		return nil, err
	}
	return &promCounter{vec: vec, provider: p}, nil
}

// NewGauge implements Provider.
func (p *PrometheusProvider) NewGauge(opts GaugeOpts) (Gauge, error) {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: p.buildFQName(opts.Name),
		Help: opts.Help,
	}, opts.Labels)
	if err := registerOrReuse(p.reg, vec); err != nil {
		return nil, err
	}
	return &promGauge{vec: vec, provider: p}, nil
}

// NewHistogram implements Provider.
func (p *PrometheusProvider) NewHistogram(opts HistogramOpts) (Histogram, error) {
	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    p.buildFQName(opts.Name),
		Help:    opts.Help,
		Buckets: buckets,
	}, opts.Labels)
	if err := registerOrReuse(p.reg, vec); err != nil {
		return nil, err
	}
	return &promHistogram{vec: vec, provider: p}, nil
}

// NewTimer implements Provider.
func (p *PrometheusProvider) NewTimer(opts CommonOpts, labels []string) (Timer, error) {
	h, err := p.NewHistogram(HistogramOpts{CommonOpts: opts, Labels: labels})
	if err != nil {
		return nil, err
	}
	return &promTimer{h: h.(*promHistogram)}, nil
}

// registerOrReuse registers c, tolerating a prior registration of the
// identical collector (e.g. across repeated test runs wiring the same
// registry) by reusing the already-registered collector.
func registerOrReuse(reg *prometheus.Registry, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type promCounter struct {
	vec      *prometheus.CounterVec
	provider *PrometheusProvider
}

func (c *promCounter) Inc(labelValues ...string) { c.Add(1, labelValues...) }
func (c *promCounter) Add(v float64, labelValues ...string) {
	c.provider.trackCardinality(1)
	c.vec.WithLabelValues(labelValues...).Add(v)
}

type promGauge struct {
	vec      *prometheus.GaugeVec
	provider *PrometheusProvider
}

func (g *promGauge) Set(v float64, labelValues ...string) {
	g.provider.trackCardinality(1)
	g.vec.WithLabelValues(labelValues...).Set(v)
}

type promHistogram struct {
	vec      *prometheus.HistogramVec
	provider *PrometheusProvider
}

func (h *promHistogram) Observe(v float64, labelValues ...string) {
	h.provider.trackCardinality(1)
	h.vec.WithLabelValues(labelValues...).Observe(v)
}

type promTimer struct{ h *promHistogram }

func (t *promTimer) ObserveDuration(seconds float64, labelValues ...string) {
	t.h.Observe(seconds, labelValues...)
}
