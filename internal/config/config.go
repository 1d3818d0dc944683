// Package config provides configuration management for stoker using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports YAML files and environment variable
// overrides with the STOKER_ prefix. It manages worker pool sizing, queue
// policy, command execution settings, watch paths, and logging options.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Pool  PoolConfig  `yaml:"pool"`
	Run   RunConfig   `yaml:"run"`
	Watch WatchConfig `yaml:"watch"`
	Log   LogConfig   `yaml:"log"`
}

// PoolConfig sizes the worker pool and selects its queue policy.
type PoolConfig struct {
	// Workers is the fixed number of workers, at least 1.
	Workers int `yaml:"workers"`
	// QueueDepth bounds the work queue when positive. Zero keeps the
	// unbounded default, under which submission never blocks.
	QueueDepth int `yaml:"queue_depth"`
}

// RunConfig controls how command lines become jobs.
type RunConfig struct {
	// Shell is the interpreter each command line is passed to.
	Shell string `yaml:"shell"`
	// ContinueOnError keeps running remaining commands after a failure.
	ContinueOnError bool `yaml:"continue_on_error"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Paths    []string `yaml:"paths"`
	Ignore   []string `yaml:"ignore"`
	Debounce string   `yaml:"debounce"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present. It is also what `stoker init` writes out.
func Default() *Config {
	return &Config{
		Pool: PoolConfig{
			Workers:    runtime.NumCPU(),
			QueueDepth: 0,
		},
		Run: RunConfig{
			Shell:           "/bin/sh",
			ContinueOnError: false,
		},
		Watch: WatchConfig{
			Paths:    []string{"."},
			Ignore:   []string{".git", "vendor", "node_modules"},
			Debounce: "300ms",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from viper's current state, applying defaults for
// anything unset, then validates it.
func Load() (*Config, error) {
	config := Default()

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	// Handle values set via viper (workaround for viper slice and scalar
	// handling when defaults are pre-populated in the struct)
	if viper.IsSet("watch.paths") {
		config.Watch.Paths = viper.GetStringSlice("watch.paths")
	}
	if viper.IsSet("watch.ignore") {
		config.Watch.Ignore = viper.GetStringSlice("watch.ignore")
	}
	if viper.IsSet("pool.workers") {
		config.Pool.Workers = viper.GetInt("pool.workers")
	}
	if viper.IsSet("pool.queue_depth") {
		config.Pool.QueueDepth = viper.GetInt("pool.queue_depth")
	}
	if viper.IsSet("run.continue_on_error") {
		config.Run.ContinueOnError = viper.GetBool("run.continue_on_error")
	}
	if viper.IsSet("watch.debounce") {
		config.Watch.Debounce = viper.GetString("watch.debounce")
	}
	if viper.IsSet("log-level") {
		config.Log.Level = viper.GetString("log-level")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for values the pool and watcher cannot
// operate with.
func (c *Config) Validate() error {
	if c.Pool.Workers < 1 {
		return fmt.Errorf("pool.workers must be at least 1, got %d", c.Pool.Workers)
	}
	if c.Pool.QueueDepth < 0 {
		return fmt.Errorf("pool.queue_depth must not be negative, got %d", c.Pool.QueueDepth)
	}
	if c.Run.Shell == "" {
		return fmt.Errorf("run.shell must not be empty")
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}

	return nil
}

// DebounceDuration parses the watch debounce window.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 300 * time.Millisecond, nil
	}

	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce is not a duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}

	return d, nil
}
