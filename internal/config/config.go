// Package config loads the tpool command configuration.
//
// Values are layered, lowest priority first: built-in defaults, a YAML file
// (--config), TPOOL_* environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/utkarsh5026/tpool/pool"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TPOOL"

// Workloads understood by the run and bench commands.
const (
	WorkloadSquare = "square"
	WorkloadCPU    = "cpu"
	WorkloadSleep  = "sleep"
)

// Config is the effective configuration of a tpool command.
type Config struct {
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	Tasks        int           `yaml:"tasks" mapstructure:"tasks"`
	Workload     string        `yaml:"workload" mapstructure:"workload"`
	TaskDuration time.Duration `yaml:"task_duration" mapstructure:"task_duration"`
	FailureRate  float64       `yaml:"failure_rate" mapstructure:"failure_rate"`

	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst       int           `yaml:"burst" mapstructure:"burst"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	PinWorkers  bool          `yaml:"pin_workers" mapstructure:"pin_workers"`

	LogLevel         string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat        string `yaml:"log_format" mapstructure:"log_format"`
	MetricsAddr      string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
	MetricsNamespace string `yaml:"metrics_namespace" mapstructure:"metrics_namespace"`

	Sweep      []int `yaml:"sweep" mapstructure:"sweep"`
	Iterations int   `yaml:"iterations" mapstructure:"iterations"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:          pool.DefaultWorkerCount(),
		Tasks:            1000,
		Workload:         WorkloadSquare,
		TaskDuration:     time.Millisecond,
		FailureRate:      0,
		RateLimit:        0,
		Burst:            1,
		MaxAttempts:      1,
		RetryDelay:       10 * time.Millisecond,
		PinWorkers:       false,
		LogLevel:         "info",
		LogFormat:        "console",
		MetricsAddr:      "",
		MetricsNamespace: "tpool",
		Sweep:            []int{1, 2, 4, 8},
		Iterations:       3,
	}
}

// defaults flattens Default into viper keys.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"workers":           d.Workers,
		"tasks":             d.Tasks,
		"workload":          d.Workload,
		"task_duration":     d.TaskDuration,
		"failure_rate":      d.FailureRate,
		"rate_limit":        d.RateLimit,
		"burst":             d.Burst,
		"max_attempts":      d.MaxAttempts,
		"retry_delay":       d.RetryDelay,
		"pin_workers":       d.PinWorkers,
		"log_level":         d.LogLevel,
		"log_format":        d.LogFormat,
		"metrics_addr":      d.MetricsAddr,
		"metrics_namespace": d.MetricsNamespace,
		"sweep":             d.Sweep,
		"iterations":        d.Iterations,
	}
}

// FlagName maps a configuration key to its command-line flag.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load builds the effective configuration. path may be empty; flags may be
// nil. Only flags that exist in the set and whose names match a key (with
// dashes instead of underscores) are bound.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key := range defaults() {
			if f := flags.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("config: bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be > 0, got %d", c.Workers))
	}
	if c.Tasks < 0 {
		errs = append(errs, fmt.Errorf("tasks must be non-negative, got %d", c.Tasks))
	}
	switch c.Workload {
	case WorkloadSquare, WorkloadCPU, WorkloadSleep:
	default:
		errs = append(errs, fmt.Errorf("unknown workload %q", c.Workload))
	}
	if c.TaskDuration < 0 {
		errs = append(errs, fmt.Errorf("task_duration must be non-negative, got %v", c.TaskDuration))
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("failure_rate must be between 0 and 1, got %v", c.FailureRate))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must be non-negative, got %v", c.RateLimit))
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		errs = append(errs, fmt.Errorf("burst must be > 0 when rate_limit is set, got %d", c.Burst))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be >= 1, got %d", c.MaxAttempts))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_delay must be non-negative, got %v", c.RetryDelay))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	for _, n := range c.Sweep {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("sweep entries must be > 0, got %d", n))
			break
		}
	}
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be >= 1, got %d", c.Iterations))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Dump writes c as YAML.
func (c *Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return enc.Close()
}

// PoolOptions translates the pool-related settings into pool options.
func (c *Config) PoolOptions(name string, logger *zap.Logger, metrics *pool.Metrics) []pool.Option {
	opts := []pool.Option{
		pool.WithName(name),
		pool.WithLogger(logger),
		pool.WithCPUAffinity(c.PinWorkers),
	}
	if c.RateLimit > 0 {
		opts = append(opts, pool.WithRateLimit(c.RateLimit, c.Burst))
	}
	if c.MaxAttempts > 1 {
		opts = append(opts, pool.WithRetryPolicy(c.MaxAttempts, c.RetryDelay))
	}
	if metrics != nil {
		opts = append(opts, pool.WithMetrics(metrics))
	}
	return opts
}
