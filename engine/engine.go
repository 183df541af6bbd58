// Package engine is the composition root: it wires config, a
// loadpattern.Pattern, a task.Task, the rate controller, worker pool,
// metrics collector, periodic reporter, and shutdown manager into a
// single runnable unit, grounded on the teacher's engine.go
// composition root (New/Start/Stop/Snapshot/HealthSnapshot).
package engine

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vajrapulse/vajrapulse/config"
	"github.com/vajrapulse/vajrapulse/errs"
	"github.com/vajrapulse/vajrapulse/export"
	"github.com/vajrapulse/vajrapulse/internal/executor"
	internalmetrics "github.com/vajrapulse/vajrapulse/internal/metrics"
	"github.com/vajrapulse/vajrapulse/internal/ratecontrol"
	"github.com/vajrapulse/vajrapulse/internal/report"
	"github.com/vajrapulse/vajrapulse/internal/shutdown"
	"github.com/vajrapulse/vajrapulse/internal/workerpool"
	"github.com/vajrapulse/vajrapulse/loadpattern"
	pubmetrics "github.com/vajrapulse/vajrapulse/metrics"
	"github.com/vajrapulse/vajrapulse/task"
	"github.com/vajrapulse/vajrapulse/telemetry/events"
	"github.com/vajrapulse/vajrapulse/telemetry/health"
	"github.com/vajrapulse/vajrapulse/telemetry/logging"
)

// Engine drives a task.Task at the rate a loadpattern.Pattern reports
// until Stop is called or its run context is cancelled.
type Engine struct {
	cfg     config.Config
	pattern loadpattern.Pattern
	tsk     task.Task

	provider   internalmetrics.Provider
	collector  *internalmetrics.Collector
	pool       *workerpool.Pool
	rc         *ratecontrol.Controller
	shutMgr    *shutdown.Manager
	reporter   *report.Reporter
	healthEval *health.Evaluator
	bus        *events.Bus
	logger     logging.Logger
	exporters  []export.Exporter

	runID string

	started   atomic.Bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	cancelRun context.CancelFunc

	results chan task.Result
}

// New constructs an Engine. t is the Task every iteration executes;
// pattern supplies the target rate over elapsed time.
func New(cfg config.Config, t task.Task, pattern loadpattern.Pattern, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &errs.ConfigError{Cause: err}
	}
	runID := cfg.Execution.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	e := &Engine{
		cfg:       cfg,
		pattern:   pattern,
		tsk:       t,
		runID:     runID,
		bus:       events.NewBus(64),
		stopCh:    make(chan struct{}),
		results:   make(chan task.Result, cfg.Execution.QueueCapacity),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.provider == nil {
		var err error
		e.provider, err = selectProvider(cfg.Observability)
		if err != nil {
			return nil, err
		}
	}
	if e.logger == nil {
		e.logger = logging.New(nil, cfg.Observability.StructuredLogging)
	}

	collector, err := internalmetrics.NewCollector(internalmetrics.CollectorOptions{
		RunID:       runID,
		Provider:    e.provider,
		Percentiles: cfg.Observability.Percentiles,
	})
	if err != nil {
		return nil, fmt.Errorf("wiring metrics collector: %w", err)
	}
	e.collector = collector

	e.pool = workerpool.New(
		cfg.Execution.DefaultThreadPool,
		cfg.Execution.PlatformThreadPoolSize,
		cfg.Execution.BackpressureStrategy,
		cfg.Execution.BackpressureThreshold,
		cfg.Execution.QueueCapacity,
	)

	e.rc = ratecontrol.New(pattern, nil)

	e.shutMgr = shutdown.New(func() { e.collector.RecordShutdownCallbackFailure() })
	e.shutMgr.RegisterCallback(func(ctx context.Context) error {
		if err := e.tsk.Teardown(ctx); err != nil {
			return &errs.TeardownError{Cause: err}
		}
		return nil
	})

	if adaptive, ok := pattern.(*loadpattern.Adaptive); ok {
		adaptive.OnEvent = func(ev loadpattern.AdaptiveEvent) {
			e.bus.Publish(events.Event{
				Time:     time.Now(),
				Category: "loadpattern",
				Type:     string(ev.Type),
				Fields: map[string]any{
					"elapsed": ev.Elapsed.String(),
					"tps":     ev.TPS,
					"state":   ev.State.String(),
				},
			})
		}
	}

	e.healthEval = health.NewEvaluator(5 * time.Second)
	e.healthEval.Register("engine", health.ProbeFunc(func(context.Context) health.ProbeResult {
		if e.started.Load() {
			return health.HealthyResult("engine", "running")
		}
		return health.UnhealthyResult("engine", "not started")
	}))
	e.healthEval.Register("success_rate", health.ProbeFunc(func(context.Context) health.ProbeResult {
		snap := e.collector.Snapshot()
		if snap.TotalExecutions == 0 {
			return health.HealthyResult("success_rate", "no executions yet")
		}
		if snap.SuccessRate < 0.5 {
			return health.UnhealthyResult("success_rate", fmt.Sprintf("%.2f", snap.SuccessRate))
		}
		if snap.SuccessRate < 0.95 {
			return health.DegradedResult("success_rate", fmt.Sprintf("%.2f", snap.SuccessRate))
		}
		return health.HealthyResult("success_rate", fmt.Sprintf("%.2f", snap.SuccessRate))
	}))

	exporters := e.exporters
	if len(exporters) == 0 {
		exporters = []export.Exporter{&export.LogExporter{Logger: e.logger}}
	}
	e.exporters = exporters

	runCtx := export.RunContext{
		RunID:     runID,
		StartedAt: time.Now().UnixNano(),
		Labels:    export.ResourceLabels(cfg.Observability.ServiceName, cfg.Observability.Environment, cfg.Observability.Region),
	}
	e.reporter = report.New(cfg.Observability.ReportInterval, e.collector.Snapshot, e.exporters, runCtx, e.logger)

	return e, nil
}

// ListenForSignals registers an OS signal handler (SIGINT and SIGTERM
// by default) that calls Stop the first time a signal arrives. The
// returned remove function unregisters the handler; callers that
// manage their own shutdown path should call it to avoid accumulating
// handlers across repeated runs.
func (e *Engine) ListenForSignals(sig ...os.Signal) (remove func()) {
	return e.shutMgr.ListenForSignals(func() {
		go e.Stop(context.Background())
	}, sig...)
}

// Subscribe exposes the engine's event bus so a caller can observe
// adaptive load-pattern events without polling Snapshot, per
// SPEC_FULL.md's event-bus supplemented feature. Only a
// *loadpattern.Adaptive pattern publishes on the bus; with any other
// pattern the subscription receives nothing.
func (e *Engine) Subscribe() *events.Subscription { return e.bus.Subscribe() }

func selectProvider(obs config.ObservabilityConfig) (internalmetrics.Provider, error) {
	if !obs.MetricsEnabled {
		return internalmetrics.NewNoopProvider(), nil
	}
	switch obs.MetricsBackend {
	case config.MetricsBackendOTel:
		return internalmetrics.NewOTelProvider(internalmetrics.OTelProviderOptions{ServiceName: obs.ServiceName}), nil
	case config.MetricsBackendNoop:
		return internalmetrics.NewNoopProvider(), nil
	case config.MetricsBackendPrometheus, "":
		return internalmetrics.NewPrometheusProvider(internalmetrics.PrometheusProviderOptions{
			Namespace:             "vajrapulse",
			CollectRuntimeMetrics: true,
		}), nil
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", obs.MetricsBackend)
	}
}

// Start begins driving the task at the configured rate. It returns a
// channel of per-iteration task.Result values the caller may consume
// (or ignore); a result is dropped rather than delivered when the
// channel's buffer is full. The channel closes once the coordinator
// has exited and every submitted iteration has returned; after an
// external Stop this can happen before Stop's shutdown callbacks
// finish.
func (e *Engine) Start(ctx context.Context) (<-chan task.Result, error) {
	if !e.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("engine: already started")
	}
	if err := e.tsk.Init(ctx); err != nil {
		e.started.Store(false)
		return nil, &errs.InitError{Cause: err}
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancelRun = cancel

	e.rc.Start()
	e.reporter.Start(runCtx)

	var iteration atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.coordinate(runCtx, &iteration)
		if ctx.Err() != nil {
			// The caller cancelled the run context rather than calling
			// Stop: drive the same shutdown sequence so Teardown still
			// runs once.
			e.Stop(context.Background())
		}
	}()

	go func() {
		wg.Wait()
		e.pool.Wait()
		close(e.results)
	}()

	return e.results, nil
}

func (e *Engine) coordinate(ctx context.Context, iteration *atomic.Int64) {
	duration := e.pattern.Duration()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		default:
		}

		if duration > 0 && e.rc.Elapsed() >= duration {
			// Hand off to the same shutdown sequence an external Stop
			// call drives, so the drain/force-cutoff timing and
			// Teardown callback still run identically whether the run
			// ended on its own or was stopped from outside.
			e.Stop(context.Background())
			return
		}

		elapsed, target, err := e.rc.Wait(ctx)
		if err != nil {
			return
		}
		e.collector.SetTargetTPS(target)

		n := iteration.Add(1) - 1
		submittedAt := time.Now()
		exec := executor.New(e.tsk, e.runID, e.cfg.Observability.TracingEnabled, e.cfg.Execution.IterationTimeout)

		dropped, err := e.pool.Submit(ctx, func() {
			result := exec.Run(ctx, n, submittedAt)
			e.collector.Record(internalmetrics.HashKey(fmt.Sprintf("%d", n%256)), result)
			e.feedAdaptive(elapsed, result)
			select {
			case e.results <- result:
			default:
			}
		})
		if err != nil {
			if err == errs.BackpressureRejectError {
				e.logger.WarnCtx(ctx, "submission rejected", map[string]any{"iteration": n})
			}
			continue
		}
		if dropped {
			e.collector.Record(internalmetrics.HashKey("dropped"), task.Result{Iteration: n, Err: errs.BackpressureDropError})
		}
		e.collector.SetQueueSize(e.pool.Occupancy())
	}
}

func (e *Engine) feedAdaptive(elapsed time.Duration, r task.Result) {
	adaptive, ok := e.pattern.(*loadpattern.Adaptive)
	if !ok {
		return
	}
	snap := e.collector.Snapshot()
	adaptive.Observe(loadpattern.FeedbackSample{
		Elapsed:     elapsed,
		SuccessRate: snap.SuccessRate,
		P99Latency:  snap.SuccessPercentiles[0.99],
	})
}

// Stop drains in-flight work and runs shutdown callbacks, returning
// once the run has fully stopped. It is idempotent: calling it more
// than once has no further effect after the first call completes.
func (e *Engine) Stop(ctx context.Context) error {
	var runErr error
	e.stopOnce.Do(func() {
		close(e.stopCh)

		drain := func(dctx context.Context) error {
			done := make(chan struct{})
			go func() {
				e.pool.Wait()
				close(done)
			}()
			select {
			case <-dctx.Done():
				if e.cancelRun != nil {
					e.cancelRun()
				}
				<-done // pool.Wait still returns once cancelled work unwinds
				return dctx.Err()
			case <-done:
				return nil
			}
		}

		runErr = e.shutMgr.Run(ctx, e.cfg.Execution.DrainTimeout, e.cfg.Execution.ForceTimeout, drain)
		e.reporter.FlushFinal(context.Background())
		e.reporter.Stop()
	})
	return runErr
}

// Snapshot returns the current AggregatedMetrics.
func (e *Engine) Snapshot() pubmetrics.AggregatedMetrics { return e.collector.Snapshot() }

// HealthSnapshot returns the current health rollup.
func (e *Engine) HealthSnapshot(ctx context.Context) health.Snapshot {
	return e.healthEval.Evaluate(ctx)
}

// RunID returns the run identifier, generated at construction time
// when the caller didn't supply one.
func (e *Engine) RunID() string { return e.runID }
