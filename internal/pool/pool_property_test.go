//go:build property

package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPoolProperties validates the pool's core contract over generated
// workloads.
func TestPoolProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property: every submitted job runs exactly once
	properties.Property("every submitted job runs exactly once", prop.ForAll(
		func(size int, jobs int) bool {
			p := New(size)

			var counter atomic.Int64
			for i := 0; i < jobs; i++ {
				if err := p.Execute(func() { counter.Add(1) }); err != nil {
					return false
				}
			}
			if err := p.Close(); err != nil {
				return false
			}

			stats := p.Stats()

			return counter.Load() == int64(jobs) &&
				stats.SubmittedJobs == int64(jobs) &&
				stats.CompletedJobs == int64(jobs) &&
				stats.FailedJobs == 0
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 200),
	))

	// Property: construction starts exactly size live workers
	properties.Property("construction starts exactly size workers", prop.ForAll(
		func(size int) bool {
			p := New(size)
			defer p.Close()

			stats := p.Stats()

			return stats.Workers == size && stats.LiveWorkers == size
		},
		gen.IntRange(1, 32),
	))

	// Property: a single producer observes FIFO start order on one worker
	properties.Property("single producer is FIFO on one worker", prop.ForAll(
		func(jobs int) bool {
			p := New(1)

			var mu sync.Mutex
			var order []int
			for i := 0; i < jobs; i++ {
				i := i
				if err := p.Execute(func() {
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
				}); err != nil {
					return false
				}
			}
			if err := p.Close(); err != nil {
				return false
			}

			if len(order) != jobs {
				return false
			}
			for i, got := range order {
				if got != i {
					return false
				}
			}

			return true
		},
		gen.IntRange(0, 100),
	))

	// Property: closing always leaves zero live workers
	properties.Property("close joins every worker", prop.ForAll(
		func(size int, jobs int) bool {
			p := New(size)
			for i := 0; i < jobs; i++ {
				_ = p.Execute(func() {})
			}
			_ = p.Close()

			return p.Stats().LiveWorkers == 0
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
