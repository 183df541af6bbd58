package metrics

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"

	pubmetrics "github.com/vajrapulse/vajrapulse/metrics"
	"github.com/vajrapulse/vajrapulse/task"
)

// histHighest bounds the histograms at one hour, generous for a load
// test iteration; values beyond it are clamped in ShardedHistogram.
const (
	histLowest  = 1
	histHighest = int64(time.Hour)
	histSigFigs = 3
)

// Collector accumulates per-iteration task.Result values into
// sharded latency histograms and exposes AggregatedMetrics snapshots,
// per SPEC_FULL.md §4.5. It also registers runtime-facing counters
// and gauges against an injected Provider so the named metrics in
// SPEC_FULL.md §6 stay live between reporter ticks.
type Collector struct {
	runID     string
	startedAt time.Time

	successHist *ShardedHistogram
	failureHist *ShardedHistogram
	waitHist    *ShardedHistogram

	total, success, failure atomic.Int64
	queueSize               atomic.Int64
	shutdownCallbackFails   atomic.Int64

	lastTargetTPS atomic.Uint64 // float64 bits

	executionCounter Counter
	queueSizeGauge   Gauge
	durationGauge    Gauge
	successRateGauge Gauge
	queueWaitHist    Histogram

	percentiles []float64
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	RunID       string
	Provider    Provider
	Percentiles []float64
}

// NewCollector constructs a Collector wired to provider for the named
// counters/gauges in SPEC_FULL.md §6.
func NewCollector(opts CollectorOptions) (*Collector, error) {
	provider := opts.Provider
	if provider == nil {
		provider = NewNoopProvider()
	}
	percentiles := opts.Percentiles
	if len(percentiles) == 0 {
		percentiles = []float64{0.5, 0.9, 0.95, 0.99}
	}

	c := &Collector{
		runID:       opts.RunID,
		startedAt:   time.Now(),
		successHist: NewShardedHistogram(histLowest, histHighest, histSigFigs),
		failureHist: NewShardedHistogram(histLowest, histHighest, histSigFigs),
		waitHist:    NewShardedHistogram(histLowest, histHighest, histSigFigs),
		percentiles: percentiles,
	}

	var err error
	if c.executionCounter, err = provider.NewCounter(CounterOpts{
		CommonOpts: CommonOpts{Name: "vajrapulse.execution.count", Help: "total task iterations executed"},
		Labels:     []string{"status"},
	}); err != nil {
		return nil, err
	}
	if c.queueSizeGauge, err = provider.NewGauge(GaugeOpts{
		CommonOpts: CommonOpts{Name: "vajrapulse.execution.queue.size", Help: "current execution queue occupancy"},
	}); err != nil {
		return nil, err
	}
	if c.durationGauge, err = provider.NewGauge(GaugeOpts{
		CommonOpts: CommonOpts{Name: "vajrapulse.execution.duration", Help: "execution duration at a configured percentile, in seconds"},
		Labels:     []string{"status", "percentile"},
	}); err != nil {
		return nil, err
	}
	if c.successRateGauge, err = provider.NewGauge(GaugeOpts{
		CommonOpts: CommonOpts{Name: "vajrapulse.success.rate", Help: "fraction of executions that succeeded"},
	}); err != nil {
		return nil, err
	}
	if c.queueWaitHist, err = provider.NewHistogram(HistogramOpts{
		CommonOpts: CommonOpts{Name: "vajrapulse.execution.queue.wait_time", Help: "time spent queued before execution began, in seconds"},
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// Record folds one task.Result into the collector's histograms and
// live counters. shardKey selects which histogram shard absorbs the
// write; the engine passes a hash of the iteration number modulo 256.
func (c *Collector) Record(shardKey uint64, r task.Result) {
	c.total.Add(1)
	status := "success"
	if r.Err != nil {
		c.failure.Add(1)
		status = "failure"
		c.failureHist.RecordValue(shardKey, r.Duration)
	} else {
		c.success.Add(1)
		c.successHist.RecordValue(shardKey, r.Duration)
	}
	c.waitHist.RecordValue(shardKey, r.QueueWait)

	c.executionCounter.Inc(status)
	c.queueWaitHist.Observe(time.Duration(r.QueueWait).Seconds())
}

// SetQueueSize updates the live queue-occupancy gauge.
func (c *Collector) SetQueueSize(n int64) {
	c.queueSize.Store(n)
	c.queueSizeGauge.Set(float64(n))
}

// SetTargetTPS records the rate controller's current target, surfaced
// in AggregatedMetrics.TargetTPS.
func (c *Collector) SetTargetTPS(tps float64) {
	c.lastTargetTPS.Store(math.Float64bits(tps))
}

// RecordShutdownCallbackFailure increments the count reported as
// AggregatedMetrics.ShutdownCallbackFailures. No Provider instrument
// is registered for it, so it is not exposed as a named metric.
func (c *Collector) RecordShutdownCallbackFailure() {
	c.shutdownCallbackFails.Add(1)
}

// Snapshot computes an AggregatedMetrics from the collector's current
// state. It is safe to call concurrently with Record.
func (c *Collector) Snapshot() pubmetrics.AggregatedMetrics {
	successSnap := c.successHist.Snapshot()
	failureSnap := c.failureHist.Snapshot()
	waitSnap := c.waitHist.Snapshot()

	total := c.total.Load()
	success := c.success.Load()
	failure := c.failure.Load()

	var successRate float64
	if total > 0 {
		successRate = float64(success) / float64(total)
	}
	c.successRateGauge.Set(successRate)

	agg := pubmetrics.AggregatedMetrics{
		RunID:                    c.runID,
		GeneratedAt:              time.Now(),
		Uptime:                   time.Since(c.startedAt),
		TotalExecutions:          total,
		SuccessCount:             success,
		FailureCount:             failure,
		SuccessRate:              successRate,
		TargetTPS:                math.Float64frombits(c.lastTargetTPS.Load()),
		ActualTPS:                actualTPS(total, time.Since(c.startedAt)),
		QueueSize:                c.queueSize.Load(),
		QueueWait:                latencyStats(waitSnap),
		SuccessLatency:           latencyStats(successSnap),
		FailureLatency:           latencyStats(failureSnap),
		SuccessPercentiles:       percentileSet(successSnap, c.percentiles),
		FailurePercentiles:       percentileSet(failureSnap, c.percentiles),
		QueueWaitPercentiles:     percentileSet(waitSnap, c.percentiles),
		ShutdownCallbackFailures: c.shutdownCallbackFails.Load(),
	}

	for _, p := range c.percentiles {
		label := percentileLabel(p)
		c.durationGauge.Set(agg.SuccessPercentiles[p].Seconds(), "success", label)
		c.durationGauge.Set(agg.FailurePercentiles[p].Seconds(), "failure", label)
	}

	return agg
}

func actualTPS(total int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(total) / elapsed.Seconds()
}

func latencyStats(h *hdrhistogram.Histogram) pubmetrics.LatencyStats {
	if h.TotalCount() == 0 {
		return pubmetrics.LatencyStats{}
	}
	return pubmetrics.LatencyStats{
		Mean:   time.Duration(h.Mean()),
		StdDev: time.Duration(h.StdDev()),
		Min:    time.Duration(h.Min()),
		Max:    time.Duration(h.Max()),
		Count:  h.TotalCount(),
	}
}

func percentileSet(h *hdrhistogram.Histogram, percentiles []float64) pubmetrics.PercentileSet {
	out := make(pubmetrics.PercentileSet, len(percentiles))
	for _, p := range percentiles {
		out[p] = time.Duration(h.ValueAtQuantile(p * 100))
	}
	return out
}

func percentileLabel(p float64) string {
	switch p {
	case 0.5:
		return "p50"
	case 0.9:
		return "p90"
	case 0.95:
		return "p95"
	case 0.99:
		return "p99"
	case 0.999:
		return "p999"
	default:
		return formatPercentile(p)
	}
}

func formatPercentile(p float64) string {
	s := strconv.FormatFloat(p*100, 'f', -1, 64)
	return "p" + strings.ReplaceAll(s, ".", "_")
}
