package loadpattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStaticTargetTPS(t *testing.T) {
	s := Static{TPS: 42}
	assert.Equal(t, 42.0, s.TargetTPS(0))
	assert.Equal(t, 42.0, s.TargetTPS(time.Hour))
	assert.Equal(t, time.Duration(0), s.Duration())
}

func TestStaticEndsAtLength(t *testing.T) {
	s := Static{TPS: 42, Length: 10 * time.Second}
	assert.Equal(t, 42.0, s.TargetTPS(9*time.Second))
	assert.Equal(t, 0.0, s.TargetTPS(10*time.Second))
	assert.Equal(t, 10*time.Second, s.Duration())
}

func TestRampUpInterpolatesThenEnds(t *testing.T) {
	r := RampUp{From: 0, To: 100, RampDuration: 10 * time.Second}
	assert.Equal(t, 0.0, r.TargetTPS(0))
	assert.InDelta(t, 50.0, r.TargetTPS(5*time.Second), 0.001)
	assert.Equal(t, 0.0, r.TargetTPS(10*time.Second))
	assert.Equal(t, 0.0, r.TargetTPS(time.Minute))
	assert.Equal(t, 10*time.Second, r.Duration())
}

func TestRampUpWithoutDurationHoldsForever(t *testing.T) {
	r := RampUp{From: 0, To: 100}
	assert.Equal(t, 100.0, r.TargetTPS(time.Hour))
	assert.Equal(t, time.Duration(0), r.Duration())
}

func TestRampUpToMaxStartsAtZeroThenEnds(t *testing.T) {
	r := RampUpToMax{Max: 200, RampDuration: 4 * time.Second}
	assert.Equal(t, 0.0, r.TargetTPS(0))
	assert.InDelta(t, 100.0, r.TargetTPS(2*time.Second), 0.001)
	assert.Equal(t, 0.0, r.TargetTPS(4*time.Second))
	assert.Equal(t, 4*time.Second, r.Duration())
}

func TestRampUpToMaxSustainsBeforeEnding(t *testing.T) {
	r := RampUpToMax{Max: 200, RampDuration: 4 * time.Second, Sustain: 2 * time.Second}
	assert.Equal(t, 200.0, r.TargetTPS(5*time.Second))
	assert.Equal(t, 0.0, r.TargetTPS(6*time.Second))
	assert.Equal(t, 6*time.Second, r.Duration())
}

func TestStepAdvancesThenEnds(t *testing.T) {
	s := Step{Stages: []Stage{
		{At: 10, Duration: time.Second},
		{At: 20, Duration: time.Second},
		{At: 30, Duration: time.Second},
	}}
	assert.Equal(t, 10.0, s.TargetTPS(0))
	assert.Equal(t, 10.0, s.TargetTPS(time.Second)) // earlier stage wins at the exact boundary
	assert.Equal(t, 20.0, s.TargetTPS(1500*time.Millisecond))
	assert.Equal(t, 30.0, s.TargetTPS(2500*time.Millisecond))
	assert.Equal(t, 0.0, s.TargetTPS(3*time.Second))
	assert.Equal(t, 0.0, s.TargetTPS(10*time.Second))
	assert.Equal(t, 3*time.Second, s.Duration())
}

func TestStepEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Step{}.TargetTPS(0))
	assert.Equal(t, time.Duration(0), Step{}.Duration())
}

func TestSineWaveBounds(t *testing.T) {
	w := SineWave{Min: 10, Max: 30, Period: time.Second}
	assert.InDelta(t, 20.0, w.TargetTPS(0), 0.001)
	assert.InDelta(t, 30.0, w.TargetTPS(time.Second/4), 0.001)
	assert.InDelta(t, 10.0, w.TargetTPS(3*time.Second/4), 0.001)
	assert.Equal(t, time.Duration(0), w.Duration())
}

func TestSineWaveEndsAtLength(t *testing.T) {
	w := SineWave{Min: 10, Max: 30, Period: time.Second, Length: 2 * time.Second}
	assert.Equal(t, 0.0, w.TargetTPS(2*time.Second))
}

func TestSpikeWindows(t *testing.T) {
	s := Spike{
		Base: 5,
		Spikes: []SpikeWindow{
			{Offset: time.Second, Duration: 500 * time.Millisecond, At: 50},
		},
	}
	assert.Equal(t, 5.0, s.TargetTPS(0))
	assert.Equal(t, 50.0, s.TargetTPS(1200*time.Millisecond))
	assert.Equal(t, 5.0, s.TargetTPS(2*time.Second))
	assert.Equal(t, time.Duration(0), s.Duration())
}

func TestSpikeEndsAtLength(t *testing.T) {
	s := Spike{Base: 5, Length: time.Second}
	assert.Equal(t, 0.0, s.TargetTPS(time.Second))
}

func adaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Min: 10, Max: 1000,
		RampIncrement: 20,
		RampDecrement: 30,
		SuccessFloor:  0.95,
		LatencyCeil:   200 * time.Millisecond,
		RecoveryHold:  time.Second,
	}
}

func TestAdaptiveProbesUpWhileHealthy(t *testing.T) {
	a := NewAdaptive(adaptiveConfig())
	for i := 0; i < 5; i++ {
		a.Observe(FeedbackSample{Elapsed: time.Duration(i) * time.Second, SuccessRate: 1.0, P99Latency: 50 * time.Millisecond})
	}
	assert.Equal(t, 110.0, a.TargetTPS(0))
	assert.Equal(t, AdaptiveRampUp, a.State())
}

func TestAdaptiveEntersSustainAfterStableIntervals(t *testing.T) {
	cfg := adaptiveConfig()
	cfg.StableIntervalsRequired = 3
	a := NewAdaptive(cfg)
	var events []AdaptiveEvent
	a.OnEvent = func(e AdaptiveEvent) { events = append(events, e) }

	for i := 0; i < 3; i++ {
		a.Observe(FeedbackSample{Elapsed: time.Duration(i) * time.Second, SuccessRate: 1.0, P99Latency: 50 * time.Millisecond})
	}
	assert.Equal(t, AdaptiveSustain, a.State())

	var sawStability bool
	for _, e := range events {
		if e.Type == AdaptiveEventStabilityDetected {
			sawStability = true
		}
	}
	assert.True(t, sawStability)
}

func TestAdaptiveBacksOffToMinThenResumesAtHalfLastGood(t *testing.T) {
	a := NewAdaptive(adaptiveConfig())

	a.Observe(FeedbackSample{Elapsed: 0, SuccessRate: 1.0, P99Latency: 50 * time.Millisecond})
	before := a.TargetTPS(0)

	a.Observe(FeedbackSample{Elapsed: time.Second, SuccessRate: 0.5, P99Latency: 50 * time.Millisecond})
	assert.Equal(t, AdaptiveRecovery, a.State())
	assert.Equal(t, a.Min, a.TargetTPS(0)) // enters Recovery at minTps

	// Feedback during the recovery hold must not re-trigger backoff,
	// per the spec's resolved Open Question on Recovery re-entry.
	duringHold := a.TargetTPS(0)
	a.Observe(FeedbackSample{Elapsed: time.Second + 100*time.Millisecond, SuccessRate: 0.1, P99Latency: time.Second})
	assert.Equal(t, duringHold, a.TargetTPS(0))
	assert.Equal(t, AdaptiveRecovery, a.State())

	// Once the hold elapses, probing resumes at 50% of the last
	// healthy rate observed before backoff, not at Min.
	a.Observe(FeedbackSample{Elapsed: 2 * time.Second, SuccessRate: 1.0, P99Latency: 10 * time.Millisecond})
	assert.Equal(t, AdaptiveRampUp, a.State())
	assert.InDelta(t, before/2, a.TargetTPS(0), 0.001)
}

func TestAdaptiveEmitsRecoveryEvent(t *testing.T) {
	a := NewAdaptive(adaptiveConfig())
	var events []AdaptiveEvent
	a.OnEvent = func(e AdaptiveEvent) { events = append(events, e) }

	a.Observe(FeedbackSample{Elapsed: 0, SuccessRate: 1.0, P99Latency: 50 * time.Millisecond})
	a.Observe(FeedbackSample{Elapsed: time.Second, SuccessRate: 0.1, P99Latency: 50 * time.Millisecond})

	var sawRecovery, sawTransition, sawTpsChange bool
	for _, e := range events {
		switch e.Type {
		case AdaptiveEventRecovery:
			sawRecovery = true
		case AdaptiveEventPhaseTransition:
			sawTransition = true
		case AdaptiveEventTpsChange:
			sawTpsChange = true
		}
	}
	assert.True(t, sawRecovery)
	assert.True(t, sawTransition)
	assert.True(t, sawTpsChange)
}

func TestSortedStagesOrdersByDuration(t *testing.T) {
	in := []Stage{{At: 3, Duration: 3 * time.Second}, {At: 1, Duration: time.Second}, {At: 2, Duration: 2 * time.Second}}
	out := sortedStages(in)
	assert.Equal(t, []float64{1, 2, 3}, []float64{out[0].At, out[1].At, out[2].At})
}
