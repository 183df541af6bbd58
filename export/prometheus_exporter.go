package export

import (
	"context"

	pubmetrics "github.com/vajrapulse/vajrapulse/metrics"
)

// PrometheusExporter is a no-op Exporter when the Prometheus backend
// is selected: internal/metrics.Collector already pushes every named
// metric into the Provider's gauges/counters as it records and
// snapshots, so nothing further needs pushing here. It exists so
// Prometheus can appear explicitly in an engine's exporter list
// (engine.WithExporters), rather than being handled as an implicit
// special case.
type PrometheusExporter struct{}

// Export implements Exporter.
func (PrometheusExporter) Export(context.Context, string, RunContext, pubmetrics.AggregatedMetrics) error {
	return nil
}
