package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTask struct {
	execute func(ctx context.Context, iteration int64) error
}

func (f *fakeTask) Init(context.Context) error     { return nil }
func (f *fakeTask) Teardown(context.Context) error { return nil }
func (f *fakeTask) Execute(ctx context.Context, iteration int64) error {
	return f.execute(ctx, iteration)
}

func TestExecutorRecordsSuccess(t *testing.T) {
	e := New(&fakeTask{execute: func(context.Context, int64) error { return nil }}, "run-1", false, 0)
	r := e.Run(context.Background(), 1, time.Now())
	assert.True(t, r.Succeeded())
	assert.GreaterOrEqual(t, r.Duration, int64(0))
}

func TestExecutorRecordsFailure(t *testing.T) {
	want := errors.New("boom")
	e := New(&fakeTask{execute: func(context.Context, int64) error { return want }}, "run-1", false, 0)
	r := e.Run(context.Background(), 1, time.Now())
	require.Error(t, r.Err)
	assert.False(t, r.Succeeded())
}

func TestExecutorRecoversFromPanic(t *testing.T) {
	e := New(&fakeTask{execute: func(context.Context, int64) error { panic("kaboom") }}, "run-1", false, 0)
	r := e.Run(context.Background(), 1, time.Now())
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "kaboom")
}

func TestExecutorAppliesIterationTimeout(t *testing.T) {
	e := New(&fakeTask{execute: func(ctx context.Context, _ int64) error {
		<-ctx.Done()
		return ctx.Err()
	}}, "run-1", false, 10*time.Millisecond)
	r := e.Run(context.Background(), 1, time.Now())
	require.Error(t, r.Err)
}

func TestExecutorRecordsQueueWait(t *testing.T) {
	e := New(&fakeTask{execute: func(context.Context, int64) error { return nil }}, "run-1", false, 0)
	submitted := time.Now().Add(-20 * time.Millisecond)
	r := e.Run(context.Background(), 1, submitted)
	assert.GreaterOrEqual(t, r.QueueWait, int64(15*time.Millisecond))
}

func TestExecutorPassesIterationNumber(t *testing.T) {
	var got int64 = -1
	e := New(&fakeTask{execute: func(_ context.Context, iteration int64) error {
		got = iteration
		return nil
	}}, "run-1", false, 0)
	e.Run(context.Background(), 42, time.Now())
	assert.Equal(t, int64(42), got)
}
