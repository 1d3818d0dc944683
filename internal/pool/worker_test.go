package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerLifecycle(t *testing.T) {
	t.Run("executes jobs and returns to idle", func(t *testing.T) {
		queue := make(chan message, 4)
		w := newWorker(0, queue, quietLogger(), NewPoolMetrics())

		ran := make(chan struct{})
		queue <- newJobMessage(func() { close(ran) })

		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatal("worker never ran the job")
		}

		queue <- terminateMessage()
		require.NoError(t, w.join())
		assert.Equal(t, WorkerTerminated, w.State())
	})

	t.Run("terminate is terminal", func(t *testing.T) {
		queue := make(chan message, 2)
		w := newWorker(1, queue, quietLogger(), NewPoolMetrics())

		queue <- terminateMessage()
		require.NoError(t, w.join())

		assert.False(t, w.alive())
		// join is idempotent once the worker exited
		require.NoError(t, w.join())
	})

	t.Run("finishes current job before terminating", func(t *testing.T) {
		queue := make(chan message, 2)
		w := newWorker(2, queue, quietLogger(), NewPoolMetrics())

		gate := make(chan struct{})
		finished := make(chan struct{})
		queue <- newJobMessage(func() {
			<-gate
			close(finished)
		})
		queue <- terminateMessage()

		assert.True(t, w.alive())
		close(gate)

		require.NoError(t, w.join())
		select {
		case <-finished:
		default:
			t.Fatal("worker terminated before finishing its job")
		}
	})

	t.Run("panic ends the worker with a recorded failure", func(t *testing.T) {
		metrics := NewPoolMetrics()
		queue := make(chan message, 2)
		w := newWorker(3, queue, quietLogger(), metrics)

		queue <- newJobMessage(func() { panic("bad job") })

		err := w.join()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker 3")
		assert.Contains(t, err.Error(), "bad job")
		assert.Equal(t, WorkerFailed, w.State())
		assert.Equal(t, int64(1), metrics.GetSnapshot().FailedJobs)
	})

	t.Run("closed queue ends the loop", func(t *testing.T) {
		queue := make(chan message)
		w := newWorker(4, queue, quietLogger(), NewPoolMetrics())

		close(queue)
		require.NoError(t, w.join())
	})
}

func TestWorkerStateString(t *testing.T) {
	assert.Equal(t, "idle", WorkerIdle.String())
	assert.Equal(t, "executing", WorkerExecuting.String())
	assert.Equal(t, "terminated", WorkerTerminated.String())
	assert.Equal(t, "failed", WorkerFailed.String())
	assert.Equal(t, "unknown", WorkerState(42).String())
}

func TestMessageKindString(t *testing.T) {
	assert.Equal(t, "new-job", msgNewJob.String())
	assert.Equal(t, "terminate", msgTerminate.String())
	assert.Equal(t, "unknown", messageKind(9).String())
}
