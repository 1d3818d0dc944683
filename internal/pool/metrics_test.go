package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolMetrics(t *testing.T) {
	t.Run("records submissions completions and failures", func(t *testing.T) {
		metrics := NewPoolMetrics()

		metrics.RecordSubmission()
		metrics.RecordSubmission()
		metrics.RecordSubmission()
		metrics.RecordCompletion(100 * time.Millisecond)
		metrics.RecordCompletion(300 * time.Millisecond)
		metrics.RecordFailure()

		snapshot := metrics.GetSnapshot()
		assert.Equal(t, int64(3), snapshot.SubmittedJobs)
		assert.Equal(t, int64(2), snapshot.CompletedJobs)
		assert.Equal(t, int64(1), snapshot.FailedJobs)
		assert.Equal(t, 400*time.Millisecond, snapshot.TotalDuration)
		assert.Equal(t, 200*time.Millisecond, snapshot.AverageDuration)
	})

	t.Run("reset clears everything", func(t *testing.T) {
		metrics := NewPoolMetrics()
		metrics.RecordSubmission()
		metrics.RecordCompletion(time.Second)
		metrics.RecordFailure()

		metrics.Reset()

		snapshot := metrics.GetSnapshot()
		assert.Equal(t, int64(0), snapshot.SubmittedJobs)
		assert.Equal(t, int64(0), snapshot.CompletedJobs)
		assert.Equal(t, int64(0), snapshot.FailedJobs)
		assert.Equal(t, time.Duration(0), snapshot.TotalDuration)
		assert.Equal(t, time.Duration(0), snapshot.AverageDuration)
	})

	t.Run("safe under concurrent recording", func(t *testing.T) {
		metrics := NewPoolMetrics()

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					metrics.RecordSubmission()
					metrics.RecordCompletion(time.Millisecond)
				}
			}()
		}
		wg.Wait()

		snapshot := metrics.GetSnapshot()
		assert.Equal(t, int64(800), snapshot.SubmittedJobs)
		assert.Equal(t, int64(800), snapshot.CompletedJobs)
	})
}
