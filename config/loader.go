package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vajrapulse/vajrapulse/errs"
)

// EnvPrefix is the prefix applied to environment-variable overrides,
// per SPEC_FULL.md §4.0 (VAJRAPULSE_<PATH_UPPERCASED_WITH_UNDERSCORES>).
const EnvPrefix = "VAJRAPULSE"

// searchPaths returns the default config file candidates, in the
// precedence order described in SPEC_FULL.md §4.0: explicit path
// first (handled by the caller), then cwd, then the user's home
// directory, then /etc.
func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".vajrapulse"))
	}
	paths = append(paths, "/etc/vajrapulse")
	return paths
}

// Load resolves a Config starting from Defaults(), then layering in a
// config file (explicit path if non-empty, otherwise the first match
// of vajrapulse.conf.yml found on the search path), then environment
// variable overrides. It returns *errs.ConfigError wrapping a
// *ValidationError when the resolved configuration fails Validate.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("vajrapulse.conf")
		for _, p := range searchPaths() {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	bindDefaults(v, "execution", defaults.Execution)
	bindDefaults(v, "observability", defaults.Observability)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &errs.ConfigError{Cause: fmt.Errorf("reading config: %w", err)}
		}
		// No file found anywhere on the search path: defaults plus
		// env overrides still apply.
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &errs.ConfigError{Cause: fmt.Errorf("decoding config: %w", err)}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &errs.ConfigError{Cause: err}
	}
	return &cfg, nil
}

// bindDefaults registers default values with viper under the given
// section prefix so AutomaticEnv lookups and ReadInConfig-absent runs
// still resolve through viper's own precedence chain rather than only
// through the Go zero-value cfg we unmarshal into.
func bindDefaults(v *viper.Viper, section string, values any) {
	switch val := values.(type) {
	case ExecutionConfig:
		v.SetDefault(section+".drainTimeout", val.DrainTimeout)
		v.SetDefault(section+".forceTimeout", val.ForceTimeout)
		v.SetDefault(section+".defaultThreadPool", string(val.DefaultThreadPool))
		v.SetDefault(section+".platformThreadPoolSize", val.PlatformThreadPoolSize)
		v.SetDefault(section+".queueCapacity", val.QueueCapacity)
		v.SetDefault(section+".backpressureStrategy", string(val.BackpressureStrategy))
		v.SetDefault(section+".backpressureThreshold", val.BackpressureThreshold)
		v.SetDefault(section+".iterationTimeout", val.IterationTimeout)
	case ObservabilityConfig:
		v.SetDefault(section+".metricsEnabled", val.MetricsEnabled)
		v.SetDefault(section+".metricsBackend", string(val.MetricsBackend))
		v.SetDefault(section+".prometheusListenAddr", val.PrometheusListenAddr)
		v.SetDefault(section+".structuredLogging", val.StructuredLogging)
		v.SetDefault(section+".tracingEnabled", val.TracingEnabled)
		v.SetDefault(section+".reportInterval", val.ReportInterval)
		v.SetDefault(section+".percentiles", val.Percentiles)
		v.SetDefault(section+".serviceName", val.ServiceName)
		v.SetDefault(section+".environment", val.Environment)
		v.SetDefault(section+".region", val.Region)
	}
}

// Save writes c to path as YAML, the inverse of Load, used by callers
// that want to persist a resolved configuration (and by the
// round-trip idempotence test in SPEC_FULL.md §8).
func (c *Config) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
