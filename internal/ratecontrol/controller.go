// Package ratecontrol paces task submissions to the target rate a
// loadpattern.Pattern reports for the current elapsed time, using the
// elapsed-vs-target sleep math from fortio's periodic runner
// (targetElapsed - actualElapsed = sleepDuration), generalized from a
// fixed QPS to a pattern resampled on every iteration.
package ratecontrol

import (
	"context"
	"fmt"
	"time"

	"github.com/vajrapulse/vajrapulse/loadpattern"
)

// Controller gates iteration submission to approximate a
// loadpattern.Pattern's reported target rate. It is not safe for
// concurrent use by multiple goroutines: a single coordinator
// goroutine owns pacing decisions, per SPEC_FULL.md §5.
type Controller struct {
	pattern loadpattern.Pattern
	clock   Clock

	started bool
	start   time.Time
	next    time.Time
}

// New constructs a Controller. clock defaults to RealClock when nil.
func New(pattern loadpattern.Pattern, clock Clock) *Controller {
	if clock == nil {
		clock = RealClock
	}
	return &Controller{pattern: pattern, clock: clock}
}

// Start anchors elapsed-time accounting to now. It must be called
// once before the first Wait.
func (c *Controller) Start() {
	now := c.clock.Now()
	c.start = now
	c.next = now
	c.started = true
}

// Wait blocks until the next iteration should begin, returning the
// elapsed time since Start and the target rate sampled for this
// iteration. It returns ctx.Err() if ctx is cancelled first.
func (c *Controller) Wait(ctx context.Context) (elapsed time.Duration, targetTPS float64, err error) {
	if !c.started {
		return 0, 0, fmt.Errorf("ratecontrol: Wait called before Start")
	}

	elapsed = c.clock.Now().Sub(c.start)
	targetTPS = c.pattern.TargetTPS(elapsed)

	if targetTPS <= 0 {
		// A non-positive target means "paused"; back off briefly and
		// let the caller resample rather than spin or block forever.
		if err := c.clock.Sleep(ctx, pauseRecheckInterval); err != nil {
			return elapsed, targetTPS, err
		}
		return elapsed, targetTPS, nil
	}

	interval := time.Duration(float64(time.Second) / targetTPS)
	c.next = c.next.Add(interval)
	sleepFor := c.next.Sub(c.clock.Now())
	if sleepFor < 0 {
		// Running behind schedule: don't accumulate an ever-growing
		// backlog of catch-up sleeps, re-anchor to now instead.
		c.next = c.clock.Now()
		sleepFor = 0
	}
	if err := c.clock.Sleep(ctx, sleepFor); err != nil {
		return elapsed, targetTPS, err
	}
	return elapsed, targetTPS, nil
}

// Elapsed reports time elapsed since Start, for callers that need to
// check a pattern's Duration boundary without driving another Wait.
// It returns 0 if called before Start.
func (c *Controller) Elapsed() time.Duration {
	if !c.started {
		return 0
	}
	return c.clock.Now().Sub(c.start)
}

const pauseRecheckInterval = 50 * time.Millisecond
