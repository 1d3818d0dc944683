// Package runner converts shell command lines into self-contained pool jobs.
//
// The pool gives no completion feedback by design, so every job the runner
// builds carries its own reporting: it writes a Result to a channel the
// caller owns. RunAll is the batch entry point used by the CLI; Job is the
// building block the watch command composes with file change batches.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/conneroisu/stoker/internal/logging"
	"github.com/conneroisu/stoker/internal/pool"
)

// Spec describes one command to run.
type Spec struct {
	// Line is the command line, passed to the shell with -c.
	Line string
	// Env is extra environment in KEY=VALUE form, appended to the
	// process environment.
	Env []string
}

// Result is the outcome of one executed command.
type Result struct {
	Line     string
	Output   []byte
	Err      error
	Duration time.Duration
}

// Failed reports whether the command exited nonzero or could not start.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Runner builds and submits command jobs against one pool.
type Runner struct {
	pool   *pool.Pool
	shell  string
	logger logging.Logger
}

// New creates a runner submitting to p. Commands are interpreted by shell
// (for example /bin/sh).
func New(p *pool.Pool, shell string, logger logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig()).WithComponent("runner")
	}

	return &Runner{
		pool:   p,
		shell:  shell,
		logger: logger,
	}
}

// Job builds a self-contained job executing spec. The job owns its command
// line and environment, runs the command to completion, and reports on
// results. The channel must have capacity for the result or a receiver
// draining it, otherwise the worker blocks on the send.
func (r *Runner) Job(ctx context.Context, spec Spec, results chan<- Result) pool.Job {
	line := spec.Line
	env := append([]string(nil), spec.Env...)

	return func() {
		start := time.Now()

		cmd := exec.CommandContext(ctx, r.shell, "-c", line)
		cmd.Env = append(os.Environ(), env...)
		output, err := cmd.CombinedOutput()

		results <- Result{
			Line:     line,
			Output:   output,
			Err:      err,
			Duration: time.Since(start),
		}
	}
}

// RunAll submits one job per command line and waits for every result. The
// returned slice is ordered by completion, not submission. An error is
// returned only when submission itself fails; per-command failures are
// reported in the results.
func (r *Runner) RunAll(ctx context.Context, lines []string) ([]Result, error) {
	results := make(chan Result, len(lines))

	submitted := 0
	for _, line := range lines {
		if err := r.pool.Execute(r.Job(ctx, Spec{Line: line}, results)); err != nil {
			return collect(results, submitted), fmt.Errorf("submitting %q: %w", line, err)
		}
		submitted++
	}

	collected := collect(results, submitted)

	for _, res := range collected {
		if res.Failed() {
			r.logger.Error(ctx, res.Err, "command failed",
				"command", res.Line,
				"duration", res.Duration.String())
		} else {
			r.logger.Debug(ctx, "command finished",
				"command", res.Line,
				"duration", res.Duration.String())
		}
	}

	return collected, nil
}

// Failures filters results down to the failed commands.
func Failures(results []Result) []Result {
	var failed []Result
	for _, res := range results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}

	return failed
}

// collect receives exactly n results.
func collect(results <-chan Result, n int) []Result {
	collected := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		collected = append(collected, <-results)
	}

	return collected
}
