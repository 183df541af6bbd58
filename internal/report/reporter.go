// Package report drives Exporters on a fixed interval, grounded on
// the teacher's ticker-driven eviction loop in
// internal/ratelimit/limiter.go (a dedicated goroutine woken by a
// time.Ticker, stopped via a close-once channel).
package report

import (
	"context"
	"sync"
	"time"

	"github.com/vajrapulse/vajrapulse/export"
	pubmetrics "github.com/vajrapulse/vajrapulse/metrics"
	"github.com/vajrapulse/vajrapulse/telemetry/logging"
)

// SnapshotFunc produces the current AggregatedMetrics snapshot.
type SnapshotFunc func() pubmetrics.AggregatedMetrics

// Reporter periodically pushes snapshots to a set of Exporters.
type Reporter struct {
	interval  time.Duration
	snapshot  SnapshotFunc
	exporters []export.Exporter
	run       export.RunContext
	logger    logging.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a Reporter. logger may be nil, in which case
// exporter failures are silently swallowed.
func New(interval time.Duration, snapshot SnapshotFunc, exporters []export.Exporter, run export.RunContext, logger logging.Logger) *Reporter {
	return &Reporter{
		interval:  interval,
		snapshot:  snapshot,
		exporters: exporters,
		run:       run,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the reporting goroutine. It is a no-op when interval
// is non-positive, since a zero interval means "reporting disabled".
func (r *Reporter) Start(ctx context.Context) {
	if r.interval <= 0 {
		close(r.doneCh)
		return
	}
	go r.loop(ctx)
}

func (r *Reporter) loop(ctx context.Context) {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.tick(ctx, "Live Metrics")
		}
	}
}

func (r *Reporter) tick(ctx context.Context, title string) {
	snap := r.snapshot()
	for _, exp := range r.exporters {
		if err := exp.Export(ctx, title, r.run, snap); err != nil && r.logger != nil {
			r.logger.WarnCtx(ctx, "exporter failed", map[string]any{"error": err.Error()})
		}
	}
}

// FlushFinal runs one last export pass synchronously with the final
// snapshot, used at run completion regardless of whether the periodic
// interval would have ticked again.
func (r *Reporter) FlushFinal(ctx context.Context) {
	r.tick(ctx, "Final Metrics")
}

// Stop halts the reporting goroutine and waits for it to exit.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}
