// Package task defines the execution contract every workload plugged into
// VajraPulse must satisfy.
package task

import "context"

// Task is a single unit of repeatable work the engine drives at a
// controlled rate. Implementations are invoked concurrently from many
// goroutines and must not share mutable state without their own
// synchronization.
type Task interface {
	// Init runs once before the first Execute call. Returning an error
	// aborts the run before any iteration is attempted.
	Init(ctx context.Context) error

	// Execute runs a single iteration identified by iteration, a
	// monotonically increasing sequence number starting at zero. The
	// context carries the iteration deadline, if one is configured.
	Execute(ctx context.Context, iteration int64) error

	// Teardown runs once after the run stops, whether it stopped
	// cleanly or was cancelled. Teardown always runs if Init
	// succeeded, even when the run context is already cancelled.
	Teardown(ctx context.Context) error
}

// Legacy is the pre-iteration-aware task contract: setup/execute with
// no arguments/cleanup. FromLegacy adapts it to Task.
type Legacy interface {
	Setup(ctx context.Context) error
	Execute(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// FromLegacy adapts a Legacy task to Task, mapping Setup to Init,
// Execute (ignoring the iteration number) to Execute, and Cleanup to
// Teardown.
func FromLegacy(l Legacy) Task { return legacyAdapter{l} }

type legacyAdapter struct{ l Legacy }

func (a legacyAdapter) Init(ctx context.Context) error { return a.l.Setup(ctx) }

func (a legacyAdapter) Execute(ctx context.Context, _ int64) error { return a.l.Execute(ctx) }

func (a legacyAdapter) Teardown(ctx context.Context) error { return a.l.Cleanup(ctx) }

// Named is an optional extension a Task may implement to expose a
// stable identifier. The engine does not read it: metrics and logs
// carry the run id, not a task name.
type Named interface {
	Name() string
}

// Result captures the outcome of one Execute invocation.
type Result struct {
	// Iteration is a monotonically increasing sequence number,
	// starting at zero, unique within a run.
	Iteration int64
	// StartedAt is the wall-clock time Execute was called.
	StartedAt int64 // unix nanoseconds
	// Duration is how long Execute took to return, in nanoseconds.
	Duration int64
	// Err is the error Execute returned, or nil on success.
	Err error
	// QueueWait is the time between submission to the worker pool
	// and the start of Execute, in nanoseconds.
	QueueWait int64
}

// Succeeded reports whether the iteration completed without error.
func (r Result) Succeeded() bool { return r.Err == nil }
