package engine

import (
	"net/http"

	"github.com/vajrapulse/vajrapulse/export"
	internalmetrics "github.com/vajrapulse/vajrapulse/internal/metrics"
	"github.com/vajrapulse/vajrapulse/telemetry/logging"
)

// Option customizes an Engine at construction time, the same
// functional-options shape the teacher's engine.New uses.
type Option func(*Engine)

// WithExporters adds exporters the periodic reporter drives. When no
// exporter is supplied the engine uses a single LogExporter; supplying
// any replaces that default. No metrics backend adds exporters of its
// own (PrometheusExporter is a no-op placeholder; the Collector
// already pushes into the Prometheus Provider directly).
func WithExporters(exporters ...export.Exporter) Option {
	return func(e *Engine) { e.exporters = append(e.exporters, exporters...) }
}

// WithLogger overrides the default structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetricsProvider overrides the metrics.Provider the engine would
// otherwise select from ObservabilityConfig.MetricsBackend — mainly
// for tests that want a noop provider or a provider bound to a
// caller-owned prometheus.Registry.
func WithMetricsProvider(p internalmetrics.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// MetricsHandler returns the Prometheus provider's HTTP handler when
// the Prometheus backend is active, or nil otherwise.
func (e *Engine) MetricsHandler() http.Handler {
	if p, ok := e.provider.(*internalmetrics.PrometheusProvider); ok {
		return p.MetricsHandler()
	}
	return nil
}
