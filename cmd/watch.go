package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stoker/internal/config"
	"github.com/conneroisu/stoker/internal/pool"
	"github.com/conneroisu/stoker/internal/runner"
	"github.com/conneroisu/stoker/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch [paths...]",
	Aliases: []string{"w"},
	Short:   "Watch paths and run a command on changes via the pool",
	Long: `Watch one or more paths and run a command whenever files change.
Rapid changes are debounced into one batch, each batch becomes one job on the
worker pool, and the changed paths are exposed to the command in the
STOKER_CHANGED environment variable (colon separated).

Examples:
  stoker watch --exec "make build"          # Watch configured paths
  stoker watch src --exec "go vet ./..."    # Watch src only
  stoker watch --exec 'echo $STOKER_CHANGED'`,
	RunE: runWatch,
}

var watchExec string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchExec, "exec", "e", "", "Command to run on changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if watchExec == "" {
		return fmt.Errorf("--exec is required: nothing to run on changes")
	}

	paths := cfg.Watch.Paths
	if len(args) > 0 {
		paths = args
	}

	debounce, err := cfg.DebounceDuration()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerPool := pool.New(cfg.Pool.Workers, poolOptions(cfg, logger)...)
	commandRunner := runner.New(workerPool, cfg.Run.Shell, logger.WithComponent("runner"))

	// Drain results as they arrive so workers never block reporting
	results := make(chan runner.Result, 16)
	go func() {
		for res := range results {
			printResult(res)
		}
	}()

	source := watcher.NewJobSource(workerPool, func(events []watcher.ChangeEvent) pool.Job {
		changed := make([]string, 0, len(events))
		for _, event := range events {
			changed = append(changed, event.Path)
		}

		return commandRunner.Job(ctx, runner.Spec{
			Line: watchExec,
			Env:  []string{"STOKER_CHANGED=" + strings.Join(changed, ":")},
		}, results)
	}, logger.WithComponent("jobsource"))

	fileWatcher, err := watcher.NewFileWatcher(debounce, logger.WithComponent("watcher"))
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.IgnoreFilter(cfg.Watch.Ignore))
	fileWatcher.AddHandler(source.Handler())

	for _, path := range paths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Printf("Watching %s (debounce %s), running %q on changes\n",
		strings.Join(paths, ", "), debounce, watchExec)

	// Block until interrupted, then drain the pool before exiting
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down, waiting for in-flight jobs...")
	cancel()

	if err := workerPool.Close(); err != nil {
		logger.Error(context.Background(), err, "pool shutdown reported failed workers")
	}
	close(results)

	return nil
}
