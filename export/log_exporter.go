package export

import (
	"context"

	pubmetrics "github.com/vajrapulse/vajrapulse/metrics"
	"github.com/vajrapulse/vajrapulse/telemetry/logging"
)

// LogExporter writes each snapshot as a structured log line via
// telemetry/logging.Logger.
type LogExporter struct {
	Logger logging.Logger
}

// Export implements Exporter.
func (e *LogExporter) Export(ctx context.Context, title string, run RunContext, snap pubmetrics.AggregatedMetrics) error {
	e.Logger.InfoCtx(ctx, title, map[string]any{
		"run_id":           run.RunID,
		"total_executions": snap.TotalExecutions,
		"success_rate":     snap.SuccessRate,
		"target_tps":       snap.TargetTPS,
		"actual_tps":       snap.ActualTPS,
		"queue_size":       snap.QueueSize,
	})
	return nil
}
