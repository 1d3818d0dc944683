package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stoker/internal/config"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a default .stoker.yml configuration file",
	Long: `Write a default .stoker.yml to the current directory. The generated
file documents the pool size, queue policy, shell, watch paths, and logging
options with their default values so they can be edited in place.

Examples:
  stoker init           # Create .stoker.yml with defaults
  stoker init --force   # Overwrite an existing .stoker.yml`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	const configFile = ".stoker.yml"

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default configuration: %w", err)
	}

	header := []byte("# stoker configuration\n# pool.queue_depth 0 keeps the queue unbounded; a positive value makes\n# submission block once the queue is full.\n")
	if err := os.WriteFile(configFile, append(header, data...), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFile, err)
	}

	fmt.Printf("Created %s\n", configFile)

	return nil
}
