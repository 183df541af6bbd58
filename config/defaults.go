package config

import "time"

// Defaults returns the built-in configuration used when no file,
// environment override, or explicit value supplies a setting —
// the bottom layer of the search order in SPEC_FULL.md §4.0.
func Defaults() Config {
	return Config{
		Execution: ExecutionConfig{
			DrainTimeout:           30 * time.Second,
			ForceTimeout:           45 * time.Second,
			DefaultThreadPool:      ThreadStrategyVirtual,
			PlatformThreadPoolSize: 0,
			QueueCapacity:          10_000,
			BackpressureStrategy:   BackpressureQueue,
			BackpressureThreshold:  0.9,
			IterationTimeout:       0,
		},
		Observability: ObservabilityConfig{
			MetricsEnabled:       true,
			MetricsBackend:       MetricsBackendPrometheus,
			PrometheusListenAddr: ":9464",
			StructuredLogging:    false,
			TracingEnabled:       false,
			ReportInterval:       10 * time.Second,
			Percentiles:          []float64{0.5, 0.9, 0.95, 0.99},
			ServiceName:          "vajrapulse",
			Environment:          "development",
			Region:               "",
		},
	}
}
