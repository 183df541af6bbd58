// Package workerpool schedules task iterations onto goroutines under
// a configured concurrency strategy, grounded on
// github.com/sourcegraph/conc/pool for goroutine lifecycle management
// and golang.org/x/sync/semaphore for admission control — the
// engine's answer to the teacher's channel-based pipeline stages,
// adapted from queue-of-work to rate-gated submission.
package workerpool

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"github.com/vajrapulse/vajrapulse/config"
	"github.com/vajrapulse/vajrapulse/errs"
)

// Pool dispatches iteration closures according to a ThreadStrategy
// and enforces a backpressure policy before admission.
type Pool struct {
	p         *pool.Pool
	sem       *semaphore.Weighted
	strategy  config.BackpressureStrategy
	capacity  int64
	threshold float64
	occupied  atomic.Int64
}

// New constructs a Pool. strategy selects VIRTUAL (unbounded
// goroutines) or PLATFORM (capped at size, or runtime.NumCPU() when
// size <= 0). capacity bounds admitted work that has not yet finished
// (queued or running) for backpressure purposes.
func New(strategy config.ThreadStrategy, platformSize int, backpressure config.BackpressureStrategy, backpressureThreshold float64, capacity int) *Pool {
	p := pool.New()
	if strategy == config.ThreadStrategyPlatform {
		n := platformSize
		if n <= 0 {
			n = runtime.NumCPU()
		}
		p = p.WithMaxGoroutines(n)
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{
		p:         p,
		sem:       semaphore.NewWeighted(int64(capacity)),
		strategy:  backpressure,
		capacity:  int64(capacity),
		threshold: backpressureThreshold,
	}
}

// Occupancy reports how many admission slots are currently held,
// for the execution.queue.size gauge.
func (wp *Pool) Occupancy() int64 {
	// semaphore.Weighted doesn't expose its held count directly; the
	// pool tracks it itself via acquired/released bookkeeping instead
	// of reaching into the semaphore's internals.
	return wp.occupied.Load()
}

// Submit admits fn according to the configured backpressure strategy
// and, once admitted, runs it on the pool. It returns
// errs.BackpressureRejectError under REJECT when the queue is full,
// or nil under DROP when the iteration was silently skipped — callers
// distinguish the two by checking dropped.
func (wp *Pool) Submit(ctx context.Context, fn func()) (dropped bool, err error) {
	switch wp.strategy {
	case config.BackpressureReject:
		if !wp.sem.TryAcquire(1) {
			return false, errs.BackpressureRejectError
		}
	case config.BackpressureDrop:
		if !wp.sem.TryAcquire(1) {
			return true, nil
		}
	case config.BackpressureThreshold:
		if wp.thresholdExceeded() {
			return true, nil
		}
		if err := wp.sem.Acquire(ctx, 1); err != nil {
			return false, err
		}
	default: // QUEUE, and unset
		if err := wp.sem.Acquire(ctx, 1); err != nil {
			return false, err
		}
	}

	wp.occupied.Add(1)
	wp.p.Go(func() {
		defer func() {
			wp.sem.Release(1)
			wp.occupied.Add(-1)
		}()
		fn()
	})
	return false, nil
}

func (wp *Pool) thresholdExceeded() bool {
	if wp.threshold <= 0 {
		return false
	}
	return float64(wp.occupied.Load())/float64(wp.capacity) >= wp.threshold
}

// Wait blocks until every submitted closure has returned, the
// drain half of the engine's shutdown sequence.
func (wp *Pool) Wait() { wp.p.Wait() }
