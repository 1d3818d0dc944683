package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stoker/internal/config"
	"github.com/conneroisu/stoker/internal/logging"
	"github.com/conneroisu/stoker/internal/pool"
	"github.com/conneroisu/stoker/internal/runner"
)

var runCmd = &cobra.Command{
	Use:     "run [command...]",
	Aliases: []string{"r"},
	Short:   "Run commands concurrently on the worker pool",
	Long: `Run one or more shell commands concurrently on a fixed-size worker pool.
Commands can be given as arguments, read from a file with -f, or piped on
stdin (one command per line). Every command runs exactly once; the pool
drains completely before the process exits.

Examples:
  stoker run "make test" "make lint" "make vet"
  stoker run -f commands.txt
  cat commands.txt | stoker run
  stoker run -w 8 "sleep 1" "sleep 1"    # two waves on 8 workers`,
	RunE: runRun,
}

var (
	runFile            string
	runContinueOnError bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "File with one command per line")
	runCmd.Flags().BoolVar(&runContinueOnError, "continue-on-error", false, "Keep going after a command fails")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	lines, err := gatherCommands(args)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("no commands given (pass arguments, use -f, or pipe stdin)")
	}

	logger := newLogger(cfg)
	ctx := context.Background()

	workerPool := pool.New(cfg.Pool.Workers, poolOptions(cfg, logger)...)
	commandRunner := runner.New(workerPool, cfg.Run.Shell, logger.WithComponent("runner"))

	op := logger.StartOperation("run")
	results, err := commandRunner.RunAll(ctx, lines)
	if err != nil {
		op.EndWithError(ctx, err)
		_ = workerPool.Close()

		return err
	}

	if closeErr := workerPool.Close(); closeErr != nil {
		logger.Error(ctx, closeErr, "pool shutdown reported failed workers")
	}

	for _, res := range results {
		printResult(res)
	}

	failures := runner.Failures(results)
	if len(failures) > 0 {
		op.EndWithError(ctx, fmt.Errorf("%d of %d commands failed", len(failures), len(results)))
		if !runContinueOnError && !cfg.Run.ContinueOnError {
			return fmt.Errorf("%d of %d commands failed", len(failures), len(results))
		}
	} else {
		op.End(ctx)
	}

	return nil
}

// gatherCommands merges command lines from arguments, -f, and stdin.
func gatherCommands(args []string) ([]string, error) {
	var lines []string

	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	if runFile != "" {
		file, err := os.Open(runFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open command file: %w", err)
		}
		defer file.Close()

		fileLines, err := readCommandLines(file)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fileLines...)
	}

	// Read stdin only when it is a pipe, so interactive use never blocks
	if len(lines) == 0 {
		if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
			stdinLines, err := readCommandLines(os.Stdin)
			if err != nil {
				return nil, err
			}
			lines = append(lines, stdinLines...)
		}
	}

	return lines, nil
}

// readCommandLines reads one command per line, skipping blanks and comments.
func readCommandLines(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	return lines, nil
}

func printResult(res runner.Result) {
	status := "ok"
	if res.Failed() {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s (%s)\n", status, res.Line, res.Duration.Round(time.Millisecond))
	if res.Failed() && len(res.Output) > 0 {
		fmt.Print(string(res.Output))
	}
}

// newLogger builds the CLI logger from config.
func newLogger(cfg *config.Config) *logging.StokerLogger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

// poolOptions maps config onto pool construction options.
func poolOptions(cfg *config.Config, logger logging.Logger) []pool.Option {
	opts := []pool.Option{pool.WithLogger(logger.WithComponent("pool"))}
	if cfg.Pool.QueueDepth > 0 {
		opts = append(opts, pool.WithQueueDepth(cfg.Pool.QueueDepth))
	}

	return opts
}
