// Package pool provides job metrics tracking for worker pools.
package pool

import (
	"sync"
	"time"
)

// nowFunc is swapped in tests that need deterministic durations.
var nowFunc = time.Now

// PoolMetrics tracks job throughput for one pool.
type PoolMetrics struct {
	SubmittedJobs   int64
	CompletedJobs   int64
	FailedJobs      int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	mutex           sync.RWMutex
}

// NewPoolMetrics creates a new metrics tracker.
func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{}
}

// RecordSubmission counts one job handed to the queue.
func (pm *PoolMetrics) RecordSubmission() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.SubmittedJobs++
}

// RecordCompletion counts one job that ran to completion.
func (pm *PoolMetrics) RecordCompletion(duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.CompletedJobs++
	pm.TotalDuration += duration
	pm.AverageDuration = pm.TotalDuration / time.Duration(pm.CompletedJobs)
}

// RecordFailure counts one job that panicked.
func (pm *PoolMetrics) RecordFailure() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.FailedJobs++
}

// GetSnapshot returns a copy of the current metrics.
func (pm *PoolMetrics) GetSnapshot() PoolMetrics {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	// Copy without the mutex to avoid lock copying issues
	return PoolMetrics{
		SubmittedJobs:   pm.SubmittedJobs,
		CompletedJobs:   pm.CompletedJobs,
		FailedJobs:      pm.FailedJobs,
		TotalDuration:   pm.TotalDuration,
		AverageDuration: pm.AverageDuration,
	}
}

// Reset resets all metrics.
func (pm *PoolMetrics) Reset() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.SubmittedJobs = 0
	pm.CompletedJobs = 0
	pm.FailedJobs = 0
	pm.TotalDuration = 0
	pm.AverageDuration = 0
}
