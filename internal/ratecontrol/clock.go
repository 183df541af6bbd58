package ratecontrol

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads and cancellable sleeps so the
// controller's pacing logic can be driven deterministically in tests,
// the same seam the teacher opens in internal/ratelimit/limiter.go.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock is the production Clock, backed by the standard library.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
