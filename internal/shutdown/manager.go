// Package shutdown coordinates a graceful drain followed by a forced
// cutoff, grounded on the teacher's Pipeline.Stop sequence
// (cancel-then-wait-then-close) in internal/pipeline/pipeline.go and
// fortio's Aborter one-shot CAS-guarded stop in periodic.go.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vajrapulse/vajrapulse/errs"
)

// Callback runs during the forced-cutoff phase of a shutdown, after
// the graceful drain has finished or timed out. Its error, if any, is
// aggregated into the *errs.ShutdownCallbackError returned by Run.
type Callback func(ctx context.Context) error

// Manager drives a run's shutdown sequence exactly once.
type Manager struct {
	once    sync.Once
	stopped chan struct{}

	mu        sync.Mutex
	callbacks []Callback

	onCallbackFailure func()
}

// New constructs a Manager. onCallbackFailure, if non-nil, is invoked
// once per failed callback so the caller can count callback failures
// without this package depending on the metrics collector directly.
func New(onCallbackFailure func()) *Manager {
	return &Manager{stopped: make(chan struct{}), onCallbackFailure: onCallbackFailure}
}

// RegisterCallback adds a callback to run during the forced-cutoff
// phase. A callback registered after Run has started still runs if it
// is added before the drain phase ends; the callback list is copied
// when the callback phase begins.
func (m *Manager) RegisterCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Stopped returns a channel closed exactly once, the moment Run is
// first called. The engine's coordinator does not watch it; it stops
// submitting on the engine's own stop channel.
func (m *Manager) Stopped() <-chan struct{} { return m.stopped }

// Run executes the shutdown sequence: it calls drain with a context
// bounded by drainTimeout and waits until drain returns or that
// context expires (drain itself is responsible for cancelling
// in-flight work when it sees the expiry). In either case it then
// runs every registered callback with a context whose deadline is
// forceTimeout measured from the moment Run was called — an absolute
// budget, not an additional wait tacked onto the drain timeout, per
// the resolved Open Question in SPEC_FULL.md §9.
func (m *Manager) Run(ctx context.Context, drainTimeout, forceTimeout time.Duration, drain func(ctx context.Context) error) error {
	initiatedAt := time.Now()
	m.once.Do(func() { close(m.stopped) })

	drainCtx, cancelDrain := context.WithTimeout(ctx, drainTimeout)
	defer cancelDrain()

	drainDone := make(chan error, 1)
	go func() { drainDone <- drain(drainCtx) }()

	select {
	case <-drainDone:
		// Drained within budget; callbacks still get to run, bounded
		// by whatever remains of forceTimeout.
	case <-drainCtx.Done():
		// Drain exceeded its budget; fall through to the forced
		// cutoff below. drain's goroutine is expected to observe
		// drainCtx's cancellation and return promptly.
	}

	forceDeadline := initiatedAt.Add(forceTimeout)
	forceCtx, cancelForce := context.WithDeadline(ctx, forceDeadline)
	defer cancelForce()

	return m.runCallbacks(forceCtx)
}

// ListenForSignals registers an OS signal handler that calls onSignal
// the first time any of sig arrives; it defaults to SIGINT and SIGTERM
// when sig is empty. The returned remove function unregisters the
// handler; it is idempotent and safe to call even after the signal has
// already fired, so repeated test-suite runs never accumulate
// handlers.
func (m *Manager) ListenForSignals(onSignal func(), sig ...os.Signal) (remove func()) {
	if len(sig) == 0 {
		sig = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig...)

	done := make(chan struct{})
	var fireOnce sync.Once
	go func() {
		select {
		case <-ch:
			fireOnce.Do(onSignal)
		case <-done:
		}
	}()

	var removeOnce sync.Once
	return func() {
		removeOnce.Do(func() {
			signal.Stop(ch)
			fireOnce.Do(func() {})
			close(done)
		})
	}
}

func (m *Manager) runCallbacks(ctx context.Context) error {
	m.mu.Lock()
	callbacks := make([]Callback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	var failures []error
	for _, cb := range callbacks {
		if err := cb(ctx); err != nil {
			failures = append(failures, err)
			if m.onCallbackFailure != nil {
				m.onCallbackFailure()
			}
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &errs.ShutdownCallbackError{Suppressed: failures}
}
