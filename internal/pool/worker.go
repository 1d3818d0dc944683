package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/conneroisu/stoker/internal/logging"
)

// WorkerState represents the lifecycle state of a single worker.
type WorkerState int32

const (
	// WorkerIdle means the worker is blocked waiting for its next message.
	WorkerIdle WorkerState = iota
	// WorkerExecuting means the worker is running a job.
	WorkerExecuting
	// WorkerTerminated means the worker consumed a terminate message and
	// exited cleanly. Terminal state.
	WorkerTerminated
	// WorkerFailed means a job panicked inside the worker and ended its
	// loop. Terminal state; the pool does not respawn failed workers.
	WorkerFailed
)

// String returns the string representation of the worker state.
func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerExecuting:
		return "executing"
	case WorkerTerminated:
		return "terminated"
	case WorkerFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Worker is a long-lived goroutine bound to an identifier that repeatedly
// pulls messages from the shared queue and executes jobs until it consumes a
// terminate message. Workers are created once at pool construction and are
// never replaced mid-lifetime.
type Worker struct {
	// id identifies the worker in logs and shutdown errors.
	id int
	// done is closed when the worker goroutine exits, making the worker
	// joinable exactly once.
	done chan struct{}
	// failure records the panic that ended the worker, if any. Written
	// only by the worker goroutine before done is closed.
	failure error
	// state tracks the worker through Idle -> Executing -> Idle and into
	// one of the terminal states.
	state atomic.Int32
}

// newWorker spawns the worker goroutine. The returned worker is already
// receiving from queue.
func newWorker(id int, queue <-chan message, logger logging.Logger, metrics *PoolMetrics) *Worker {
	w := &Worker{
		id:   id,
		done: make(chan struct{}),
	}
	go w.loop(queue, logger, metrics)

	return w
}

// loop blocks for the next message, executes jobs, and exits on terminate.
// Receiving from the channel is the exclusive-dequeue step; the job itself
// runs with no queue involvement so long jobs never block other workers from
// picking up their next message.
func (w *Worker) loop(queue <-chan message, logger logging.Logger, metrics *PoolMetrics) {
	defer close(w.done)

	ctx := context.Background()

	for msg := range queue {
		switch msg.kind {
		case msgTerminate:
			w.state.Store(int32(WorkerTerminated))
			logger.Debug(ctx, "worker terminating", "worker_id", w.id)

			return
		case msgNewJob:
			w.state.Store(int32(WorkerExecuting))
			if !w.runJob(msg.job, logger, metrics) {
				// A panicked job ends this worker's loop. Capacity
				// shrinks and the pool does not respawn; Close
				// surfaces the failure to whoever joins us.
				w.state.Store(int32(WorkerFailed))

				return
			}
			w.state.Store(int32(WorkerIdle))
		}
	}
}

// runJob executes one job, converting a panic into the worker's recorded
// failure. Returns false when the job panicked.
func (w *Worker) runJob(job Job, logger logging.Logger, metrics *PoolMetrics) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.failure = fmt.Errorf("worker %d: job panicked: %v", w.id, r)
			metrics.RecordFailure()
			logger.Error(context.Background(), w.failure, "job panicked, worker leaving pool",
				"worker_id", w.id)
			ok = false
		}
	}()

	start := nowFunc()
	job()
	metrics.RecordCompletion(nowFunc().Sub(start))

	return true
}

// join blocks until the worker goroutine has exited and reports the failure
// that ended it, if any. Safe to call from multiple goroutines.
func (w *Worker) join() error {
	<-w.done

	return w.failure
}

// alive reports whether the worker goroutine is still running.
func (w *Worker) alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// State returns the worker's current lifecycle state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}
