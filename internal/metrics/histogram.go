package metrics

import (
	"hash/fnv"
	"runtime"
	"sync"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// shardCount picks a power-of-two shard count from the host's CPU
// count, mirroring the sharding the teacher's AdaptiveRateLimiter uses
// in internal/ratelimit/limiter.go to avoid a single lock-contended
// histogram on the hot path.
func shardCount() int {
	n := runtime.NumCPU()
	p := 1
	for p < n {
		p <<= 1
	}
	if p < 1 {
		p = 1
	}
	return p
}

// ShardedHistogram is a latency histogram split across N shards,
// selected by a caller-supplied key, and merged only when a
// snapshot is requested. Recording is lock-free with respect to other
// shards; each shard serializes its own writers with a mutex, the
// same tradeoff the teacher makes for its per-domain rate limiter
// state.
type ShardedHistogram struct {
	shards []*histogramShard
	mask   uint64
	lowest, highest int64
	sigfigs int
}

type histogramShard struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewShardedHistogram creates a histogram recording values in
// [lowest, highest] nanoseconds with sigfigs significant digits of
// precision, matching the constructor shape of
// hdrhistogram.New(minValue, maxValue, sigfigs).
func NewShardedHistogram(lowest, highest int64, sigfigs int) *ShardedHistogram {
	n := shardCount()
	shards := make([]*histogramShard, n)
	for i := range shards {
		shards[i] = &histogramShard{hist: hdrhistogram.New(lowest, highest, sigfigs)}
	}
	return &ShardedHistogram{shards: shards, mask: uint64(n - 1), lowest: lowest, highest: highest, sigfigs: sigfigs}
}

func (h *ShardedHistogram) shardFor(key uint64) *histogramShard {
	return h.shards[key&h.mask]
}

// RecordValue records v (nanoseconds) into the shard selected by the
// low bits of key. Values outside the
// configured range are clamped rather than dropped, so a single
// outlier iteration never silently vanishes from percentile math.
func (h *ShardedHistogram) RecordValue(key uint64, v int64) {
	if v < h.lowest {
		v = h.lowest
	}
	if v > h.highest {
		v = h.highest
	}
	shard := h.shardFor(key)
	shard.mu.Lock()
	_ = shard.hist.RecordValue(v)
	shard.mu.Unlock()
}

// Snapshot merges every shard into a single histogram and returns it.
// The caller owns the result and may query it freely without further
// locking.
func (h *ShardedHistogram) Snapshot() *hdrhistogram.Histogram {
	merged := hdrhistogram.New(h.lowest, h.highest, h.sigfigs)
	for _, shard := range h.shards {
		shard.mu.Lock()
		merged.Merge(shard.hist)
		shard.mu.Unlock()
	}
	return merged
}

// HashKey derives a shard key from an arbitrary string, used when
// callers don't have a numeric worker id handy (e.g. a task name).
func HashKey(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
