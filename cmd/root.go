// Package cmd provides the command-line interface for stoker with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --workers, etc.) - highest priority
//	2. STOKER_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (STOKER_POOL_WORKERS, etc.)
//	4. Configuration files (.stoker.yml) - lowest priority
//
// Environment Variables:
//
//	STOKER_CONFIG_FILE: Path to custom configuration file
//	STOKER_POOL_WORKERS: Override worker count
//	STOKER_POOL_QUEUE_DEPTH: Override queue depth
//	And more following the STOKER_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stoker",
	Short: "Run batches of commands on a fixed-size worker pool",
	Long: `Stoker runs one-shot jobs on a fixed set of workers so a few slow
jobs never serialize the whole batch.

Key Features:
  • Fixed-size worker pool with deterministic, graceful shutdown
  • Unbounded submission by default, bounded queue opt-in
  • Batch command execution with per-command results
  • File watching that turns change batches into jobs

Quick Start:
  stoker init                      Write a default .stoker.yml
  stoker run "make test" "make lint"
  stoker run -f commands.txt       Run one command per line
  stoker watch --exec "make build" Watch and rebuild on changes`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .stoker.yml, can also use STOKER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "number of pool workers (default: number of CPUs)")
	rootCmd.PersistentFlags().Int("queue-depth", 0, "bound the work queue; 0 keeps it unbounded")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("pool.workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("pool.queue_depth", rootCmd.PersistentFlags().Lookup("queue-depth"))
}

// initConfig initializes the configuration system with support for multiple
// config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. STOKER_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .stoker.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("STOKER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stoker")
	}

	// Enable automatic environment variable binding with STOKER_ prefix
	// Examples: STOKER_POOL_WORKERS, STOKER_RUN_SHELL, STOKER_WATCH_DEBOUNCE
	viper.SetEnvPrefix("STOKER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// If the file doesn't exist or has errors, Viper falls back to
	// defaults without failing
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
