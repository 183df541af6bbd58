package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vajrapulse/vajrapulse/task"
)

func TestCollectorAggregatesSuccessAndFailure(t *testing.T) {
	c, err := NewCollector(CollectorOptions{RunID: "run-1", Percentiles: []float64{0.5, 0.99}})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		c.Record(uint64(i), task.Result{Iteration: int64(i), Duration: int64(10 * time.Millisecond), QueueWait: int64(time.Millisecond)})
	}
	c.Record(0, task.Result{Iteration: 100, Duration: int64(50 * time.Millisecond), Err: assertErr})

	snap := c.Snapshot()
	assert.Equal(t, int64(101), snap.TotalExecutions)
	assert.Equal(t, int64(100), snap.SuccessCount)
	assert.Equal(t, int64(1), snap.FailureCount)
	assert.InDelta(t, 100.0/101.0, snap.SuccessRate, 0.001)
	assert.Greater(t, snap.SuccessPercentiles[0.5], time.Duration(0))
	assert.Greater(t, snap.FailurePercentiles[0.5], time.Duration(0))
	assert.GreaterOrEqual(t, snap.QueueWaitPercentiles[0.5], time.Duration(0))
}

func TestShardedHistogramMergeIsOrderIndependent(t *testing.T) {
	h1 := NewShardedHistogram(1, int64(time.Hour), 3)
	h2 := NewShardedHistogram(1, int64(time.Hour), 3)

	values := []int64{int64(time.Millisecond), int64(5 * time.Millisecond), int64(20 * time.Millisecond), int64(100 * time.Millisecond)}
	for i, v := range values {
		h1.RecordValue(uint64(i), v)
	}
	for i := len(values) - 1; i >= 0; i-- {
		h2.RecordValue(uint64(i), values[i])
	}

	s1, s2 := h1.Snapshot(), h2.Snapshot()
	assert.Equal(t, s1.TotalCount(), s2.TotalCount())
	assert.Equal(t, s1.ValueAtQuantile(50), s2.ValueAtQuantile(50))
}

var assertErr = &testErr{}

type testErr struct{}

func (*testErr) Error() string { return "boom" }
