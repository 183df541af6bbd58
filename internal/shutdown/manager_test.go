package shutdown

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunClosesStoppedExactlyOnce(t *testing.T) {
	m := New(nil)
	select {
	case <-m.Stopped():
		t.Fatal("stopped closed before Run")
	default:
	}

	go m.Run(context.Background(), time.Second, time.Second, func(context.Context) error { return nil })
	select {
	case <-m.Stopped():
	case <-time.After(time.Second):
		t.Fatal("stopped never closed")
	}
}

func TestRunAggregatesCallbackFailures(t *testing.T) {
	var failures int
	m := New(func() { failures++ })
	m.RegisterCallback(func(context.Context) error { return errors.New("a") })
	m.RegisterCallback(func(context.Context) error { return nil })
	m.RegisterCallback(func(context.Context) error { return errors.New("b") })

	err := m.Run(context.Background(), time.Second, time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Equal(t, 2, failures)
}

func TestRunForcesAfterDrainTimeout(t *testing.T) {
	m := New(nil)
	blocked := make(chan struct{})
	ranCallback := make(chan struct{}, 1)
	m.RegisterCallback(func(context.Context) error {
		ranCallback <- struct{}{}
		return nil
	})

	start := time.Now()
	go func() {
		m.Run(context.Background(), 30*time.Millisecond, time.Second, func(ctx context.Context) error {
			<-ctx.Done() // never finishes on its own
			close(blocked)
			return ctx.Err()
		})
	}()

	select {
	case <-ranCallback:
	case <-time.After(time.Second):
		t.Fatal("callback never ran after forced cutoff")
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	<-blocked
}

func TestForceTimeoutIsAbsoluteFromInitiation(t *testing.T) {
	m := New(nil)
	start := time.Now()
	var callbackAt, deadline time.Time
	done := make(chan struct{})
	m.RegisterCallback(func(ctx context.Context) error {
		callbackAt = time.Now()
		deadline, _ = ctx.Deadline()
		close(done)
		return nil
	})

	go m.Run(context.Background(), 20*time.Millisecond, 150*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	<-done
	// Callbacks run as soon as the 20ms drain budget expires.
	// forceTimeout is measured from Run's start, not from the drain
	// deadline's expiry, so the callback context's deadline must sit
	// close to 150ms after start rather than 20ms (drain) + 150ms
	// (force).
	assert.Less(t, callbackAt.Sub(start), 400*time.Millisecond)
	assert.Less(t, deadline.Sub(start), 170*time.Millisecond)
}

func TestListenForSignalsFiresOnSignal(t *testing.T) {
	m := New(nil)
	fired := make(chan struct{})
	remove := m.ListenForSignals(func() { close(fired) }, syscall.SIGUSR1)
	defer remove()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("signal handler never fired")
	}
}

func TestListenForSignalsRemoveIsIdempotentAndStopsFiring(t *testing.T) {
	m := New(nil)
	var fired bool
	remove := m.ListenForSignals(func() { fired = true }, syscall.SIGUSR2)
	remove()
	remove() // must not panic or block

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, fired)
}
