// Package executor wraps a task.Task's Execute call with timing,
// panic recovery, and tracing, producing a task.Result for the
// metrics collector — the per-iteration counterpart to the teacher's
// extraction-worker loop in internal/pipeline/pipeline.go, which
// times each stage's work and converts panics into errors rather than
// taking down the worker goroutine.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/vajrapulse/vajrapulse/task"
	"github.com/vajrapulse/vajrapulse/telemetry/tracing"
)

// Executor runs a single task.Task's Execute method per iteration.
type Executor struct {
	Task             task.Task
	RunID            string
	TracingEnabled   bool
	IterationTimeout time.Duration
}

// New constructs an Executor for t.
func New(t task.Task, runID string, tracingEnabled bool, iterationTimeout time.Duration) *Executor {
	return &Executor{Task: t, RunID: runID, TracingEnabled: tracingEnabled, IterationTimeout: iterationTimeout}
}

// Run executes one iteration, measuring queueWait (time already
// elapsed between submission and this call) and wall-clock duration,
// and recovering from a panic in Execute by converting it into a
// task.Result error rather than propagating it onto the caller's
// goroutine.
func (e *Executor) Run(ctx context.Context, iteration int64, submittedAt time.Time) (result task.Result) {
	start := time.Now()
	result.Iteration = iteration
	result.StartedAt = start.UnixNano()
	result.QueueWait = int64(start.Sub(submittedAt))

	iterCtx := ctx
	cancel := func() {}
	if e.IterationTimeout > 0 {
		iterCtx, cancel = context.WithTimeout(ctx, e.IterationTimeout)
	}
	defer cancel()

	spanCtx, endSpan := tracing.StartIteration(iterCtx, e.TracingEnabled, e.RunID, iteration)

	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		result.Err = e.Task.Execute(spanCtx, iteration)
	}()

	endSpan(result.Err)
	result.Duration = int64(time.Since(start))
	return result
}
