package watcher

import (
	"context"
	"fmt"

	"github.com/conneroisu/stoker/internal/logging"
	"github.com/conneroisu/stoker/internal/pool"
)

// JobBuilder converts one debounced batch of change events into a job. The
// returned job must be self-contained: it owns copies of everything it needs
// and reports its outcome through whatever channel the builder captured.
type JobBuilder func(events []ChangeEvent) pool.Job

// JobSource bridges file change batches to a worker pool. It is the
// producing collaborator of the pool: it constructs jobs from raw change
// notifications and submits them, while execution stays entirely with the
// pool's workers.
type JobSource struct {
	pool   *pool.Pool
	build  JobBuilder
	logger logging.Logger
}

// NewJobSource creates a job source submitting to p.
func NewJobSource(p *pool.Pool, build JobBuilder, logger logging.Logger) *JobSource {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig()).WithComponent("jobsource")
	}

	return &JobSource{
		pool:   p,
		build:  build,
		logger: logger,
	}
}

// Handler returns a ChangeHandler that turns each batch into one job and
// hands it to the pool.
func (s *JobSource) Handler() ChangeHandler {
	return func(events []ChangeEvent) error {
		if len(events) == 0 {
			return nil
		}

		job := s.build(events)
		if job == nil {
			return nil
		}

		if err := s.pool.Execute(job); err != nil {
			return fmt.Errorf("submitting change job: %w", err)
		}

		s.logger.Debug(context.Background(), "submitted change job",
			"changed_files", len(events))

		return nil
	}
}
