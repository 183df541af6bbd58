// Package export defines the Exporter contract PeriodicReporter
// drives on each tick, per SPEC_FULL.md §6.
package export

import (
	"context"

	pubmetrics "github.com/vajrapulse/vajrapulse/metrics"
)

// RunContext carries run-scoped identity and labels to an Exporter,
// independent of any single AggregatedMetrics snapshot.
type RunContext struct {
	RunID     string
	StartedAt int64 // unix nanoseconds
	Labels    map[string]string
}

// Exporter receives periodic AggregatedMetrics snapshots and the
// final snapshot at run completion. title distinguishes the two
// ("Live Metrics" for periodic ticks, a distinct title for the final
// flush) so an Exporter can label or route them differently. An
// Exporter failure is logged when the reporter has a logger; it is
// not counted, and it never aborts the run.
type Exporter interface {
	Export(ctx context.Context, title string, run RunContext, snapshot pubmetrics.AggregatedMetrics) error
}

// ResourceLabels translates the ambient Environment/Region
// observability fields into OpenTelemetry-style resource attribute
// keys, per SPEC_FULL.md §6.
func ResourceLabels(serviceName, environment, region string) map[string]string {
	labels := map[string]string{"service.name": serviceName}
	if environment != "" {
		labels["deployment.environment"] = environment
	}
	if region != "" {
		labels["cloud.region"] = region
	}
	return labels
}
