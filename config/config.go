// Package config loads and validates VajraPulse's execution and
// observability configuration, grounded on the layered
// search-path-plus-environment-override loader pattern in
// firestige-Otus's internal/otus/config/loader.go.
package config

import (
	"fmt"
	"time"
)

// ThreadStrategy selects how the engine schedules concurrent
// iterations.
type ThreadStrategy string

const (
	// ThreadStrategyVirtual spawns one goroutine per iteration,
	// unbounded except by the backpressure queue.
	ThreadStrategyVirtual ThreadStrategy = "VIRTUAL"
	// ThreadStrategyPlatform caps concurrency at PlatformThreadPoolSize.
	ThreadStrategyPlatform ThreadStrategy = "PLATFORM"
	// ThreadStrategyAuto behaves like Virtual; reserved so callers can
	// express "let the engine decide" without committing to Virtual's
	// exact semantics in their own config.
	ThreadStrategyAuto ThreadStrategy = "AUTO"
)

// BackpressureStrategy selects how the engine responds when the
// execution queue is saturated.
type BackpressureStrategy string

const (
	// BackpressureQueue blocks the submitter until capacity frees up.
	BackpressureQueue BackpressureStrategy = "QUEUE"
	// BackpressureDrop silently skips the iteration and counts it.
	BackpressureDrop BackpressureStrategy = "DROP"
	// BackpressureReject returns errs.BackpressureRejectError to the
	// submitter instead of blocking or dropping.
	BackpressureReject BackpressureStrategy = "REJECT"
	// BackpressureThreshold drops once queue occupancy reaches the
	// ExecutionConfig.BackpressureThreshold fraction of capacity,
	// otherwise queues.
	BackpressureThreshold BackpressureStrategy = "THRESHOLD"
)

// MetricsBackend selects which internal/metrics.Provider implementation
// the engine wires up.
type MetricsBackend string

const (
	MetricsBackendPrometheus MetricsBackend = "prometheus"
	MetricsBackendOTel       MetricsBackend = "otel"
	MetricsBackendNoop       MetricsBackend = "noop"
)

// ExecutionConfig governs run lifecycle, concurrency strategy, and
// shutdown timing. Field names mirror the dotted config keys in
// SPEC_FULL.md §6 (execution.drainTimeout, execution.forceTimeout,
// execution.defaultThreadPool, execution.platformThreadPoolSize, ...).
type ExecutionConfig struct {
	RunID                  string               `mapstructure:"runId" yaml:"runId"`
	DrainTimeout           time.Duration        `mapstructure:"drainTimeout" yaml:"drainTimeout"`
	ForceTimeout           time.Duration        `mapstructure:"forceTimeout" yaml:"forceTimeout"`
	DefaultThreadPool      ThreadStrategy       `mapstructure:"defaultThreadPool" yaml:"defaultThreadPool"`
	PlatformThreadPoolSize int                  `mapstructure:"platformThreadPoolSize" yaml:"platformThreadPoolSize"`
	QueueCapacity          int                  `mapstructure:"queueCapacity" yaml:"queueCapacity"`
	BackpressureStrategy   BackpressureStrategy `mapstructure:"backpressureStrategy" yaml:"backpressureStrategy"`
	BackpressureThreshold  float64              `mapstructure:"backpressureThreshold" yaml:"backpressureThreshold"`
	IterationTimeout       time.Duration        `mapstructure:"iterationTimeout" yaml:"iterationTimeout"`
}

// ObservabilityConfig governs metrics export, logging, and tracing.
type ObservabilityConfig struct {
	MetricsEnabled        bool           `mapstructure:"metricsEnabled" yaml:"metricsEnabled"`
	MetricsBackend        MetricsBackend `mapstructure:"metricsBackend" yaml:"metricsBackend"`
	PrometheusListenAddr  string         `mapstructure:"prometheusListenAddr" yaml:"prometheusListenAddr"`
	StructuredLogging     bool           `mapstructure:"structuredLogging" yaml:"structuredLogging"`
	TracingEnabled        bool           `mapstructure:"tracingEnabled" yaml:"tracingEnabled"`
	ReportInterval        time.Duration  `mapstructure:"reportInterval" yaml:"reportInterval"`
	Percentiles           []float64      `mapstructure:"percentiles" yaml:"percentiles"`
	ServiceName           string         `mapstructure:"serviceName" yaml:"serviceName"`
	Environment           string         `mapstructure:"environment" yaml:"environment"`
	Region                string         `mapstructure:"region" yaml:"region"`
}

// Config is the root configuration document.
type Config struct {
	Execution     ExecutionConfig     `mapstructure:"execution" yaml:"execution"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// ValidationError aggregates every rejected field from one validation
// pass instead of failing on the first offender, per SPEC_FULL.md §4.0.
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d configuration error(s): %v", len(e.Errors), e.Errors)
}

// Unwrap supports errors.Is/errors.As against any individual failure.
func (e *ValidationError) Unwrap() []error { return e.Errors }

// Validate checks c for internally consistent, usable values,
// returning a *ValidationError listing every problem found.
func (c *Config) Validate() error {
	var errList []error
	add := func(format string, args ...any) { errList = append(errList, fmt.Errorf(format, args...)) }

	if c.Execution.DrainTimeout < 0 {
		add("execution.drainTimeout must be >= 0, got %s", c.Execution.DrainTimeout)
	}
	if c.Execution.ForceTimeout < 0 {
		add("execution.forceTimeout must be >= 0, got %s", c.Execution.ForceTimeout)
	}
	switch c.Execution.DefaultThreadPool {
	case ThreadStrategyVirtual, ThreadStrategyPlatform, ThreadStrategyAuto, "":
	default:
		add("execution.defaultThreadPool %q is not one of VIRTUAL, PLATFORM, AUTO", c.Execution.DefaultThreadPool)
	}
	if c.Execution.DefaultThreadPool == ThreadStrategyPlatform &&
		c.Execution.PlatformThreadPoolSize != -1 && c.Execution.PlatformThreadPoolSize <= 0 {
		add("execution.platformThreadPoolSize must be -1 (one per CPU) or > 0 when defaultThreadPool is PLATFORM, got %d", c.Execution.PlatformThreadPoolSize)
	}
	if c.Execution.QueueCapacity <= 0 {
		add("execution.queueCapacity must be > 0, got %d", c.Execution.QueueCapacity)
	}
	switch c.Execution.BackpressureStrategy {
	case BackpressureQueue, BackpressureDrop, BackpressureReject, BackpressureThreshold, "":
	default:
		add("execution.backpressureStrategy %q is not one of QUEUE, DROP, REJECT, THRESHOLD", c.Execution.BackpressureStrategy)
	}
	if c.Execution.BackpressureStrategy == BackpressureThreshold &&
		(c.Execution.BackpressureThreshold <= 0 || c.Execution.BackpressureThreshold > 1) {
		add("execution.backpressureThreshold must be in (0, 1], got %v", c.Execution.BackpressureThreshold)
	}

	switch c.Observability.MetricsBackend {
	case MetricsBackendPrometheus, MetricsBackendOTel, MetricsBackendNoop, "":
	default:
		add("observability.metricsBackend %q is not one of prometheus, otel, noop", c.Observability.MetricsBackend)
	}
	for _, p := range c.Observability.Percentiles {
		if p <= 0 || p > 1 {
			add("observability.percentiles entries must be in (0, 1], got %v", p)
		}
	}
	if c.Observability.ReportInterval < 0 {
		add("observability.reportInterval must be >= 0, got %s", c.Observability.ReportInterval)
	}

	if len(errList) == 0 {
		return nil
	}
	return &ValidationError{Errors: errList}
}
