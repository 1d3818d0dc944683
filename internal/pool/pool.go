// Package pool provides a fixed-size worker pool that decouples acceptance
// of one-shot jobs from their execution, so a small number of slow jobs
// cannot serialize an entire program.
//
// A Pool owns a fixed set of workers, each a long-lived goroutine receiving
// from one shared queue. Execute hands a job to the queue; exactly one
// worker dequeues and runs it. Close performs a deterministic shutdown:
// one terminate message per worker, then a join of every worker, returning
// only after all jobs submitted before Close have finished.
//
// Queue policy: unbounded by default, so Execute never blocks the caller.
// WithQueueDepth selects a bounded queue instead, in which case Execute
// blocks while the buffer is full. Both policies deliver messages in FIFO
// order per producer.
//
// Panic policy: a panic inside a job is recovered, logged, and ends the
// worker that ran it. The pool does not detect or replace dead workers, so
// effective capacity silently shrinks after such an event; Close reports
// every worker lost this way. This mirrors the classic hand-rolled pool
// design and is a documented limitation, not an accident.
package pool

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/conneroisu/stoker/internal/logging"
)

var (
	// ErrPoolClosed is returned by Execute once Close has begun, and by a
	// second Close.
	ErrPoolClosed = errors.New("pool is closed")
	// ErrNilJob is returned by Execute when handed a nil job.
	ErrNilJob = errors.New("job must not be nil")
)

// Pool owns a fixed collection of workers and the producer side of the work
// queue. The zero value is not usable; construct with New.
type Pool struct {
	// workers is the fixed worker set, sized at construction and never
	// grown or shrunk.
	workers []*Worker
	// queue carries messages from Execute to the workers.
	queue *messageQueue
	// metrics tracks job throughput.
	metrics *PoolMetrics
	// logger receives worker lifecycle and panic events.
	logger logging.Logger
	// mu orders Execute against Close: Execute holds the read side across
	// its closed-check and send, Close holds the write side while marking
	// the pool closed, so no job can slip in after the terminates.
	mu sync.RWMutex
	// closed is set once Close begins.
	closed bool
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithQueueDepth selects a bounded queue of the given depth. Execute then
// blocks while the queue is full instead of buffering without limit. Depth
// must be positive; a zero or negative depth keeps the unbounded default.
func WithQueueDepth(depth int) Option {
	return func(p *Pool) {
		if depth > 0 {
			p.queue = newMessageQueue(depth)
		}
	}
}

// WithLogger replaces the pool's default logger.
func WithLogger(logger logging.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pool of exactly size workers, all receiving from one shared
// queue. Panics if size is not positive: a pool with no workers can never
// make progress, so requesting one is a programming error rather than a
// recoverable condition.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		panic(fmt.Sprintf("pool: size must be positive, got %d", size))
	}

	p := &Pool{
		metrics: NewPoolMetrics(),
		logger: logging.NewLogger(&logging.LoggerConfig{
			Level:  logging.LevelWarn,
			Output: os.Stderr,
		}).WithComponent("pool"),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.queue == nil {
		p.queue = newMessageQueue(0)
	}

	p.workers = make([]*Worker, size)
	for id := 0; id < size; id++ {
		p.workers[id] = newWorker(id, p.queue.recv(), p.logger, p.metrics)
	}

	return p
}

// Execute enqueues one job for execution by exactly one worker. Under the
// default unbounded queue this never blocks on worker progress; under a
// bounded queue it blocks until space frees. Jobs submitted from a single
// goroutine begin execution in submission order; no guarantee is made about
// which worker runs a given job, nor about ordering across concurrent
// submitters.
//
// Execute gives no completion feedback. A caller that needs the result of a
// job must build the signalling into the job itself.
func (p *Pool) Execute(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	p.metrics.RecordSubmission()
	p.queue.send(newJobMessage(job))

	return nil
}

// Close shuts the pool down deterministically: it sends exactly one
// terminate message per worker, then joins every worker in sequence. Because
// the queue is FIFO, every job submitted before Close is dequeued and run
// before any worker sees its terminate; Close returns only after the last
// in-flight job has finished and every worker goroutine has exited.
//
// Workers that died from a panicked job are reported in the returned error,
// one entry per lost worker, joined together. A second Close returns
// ErrPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()

		return ErrPoolClosed
	}
	p.closed = true
	p.mu.Unlock()

	// One terminate per worker: a plain channel delivers each message to
	// only one consumer, so a single broadcast would strand the rest. Sent
	// concurrently with the joins so a bounded queue backed up in front of
	// already-dead workers cannot wedge shutdown.
	go func() {
		for range p.workers {
			p.queue.send(terminateMessage())
		}
	}()

	var failures []error
	for _, w := range p.workers {
		if err := w.join(); err != nil {
			failures = append(failures, fmt.Errorf("joining worker %d: %w", w.id, err))
		}
	}

	// All workers are joined; nothing will receive again, so the queue's
	// pump can go. Terminates addressed to workers that died early are
	// discarded here.
	p.queue.shutdown()

	return errors.Join(failures...)
}

// Stats reports a snapshot of pool health and throughput.
func (p *Pool) Stats() Stats {
	snapshot := p.metrics.GetSnapshot()

	live := 0
	for _, w := range p.workers {
		if w.alive() {
			live++
		}
	}

	return Stats{
		Workers:         len(p.workers),
		LiveWorkers:     live,
		SubmittedJobs:   snapshot.SubmittedJobs,
		CompletedJobs:   snapshot.CompletedJobs,
		FailedJobs:      snapshot.FailedJobs,
		AverageDuration: snapshot.AverageDuration,
	}
}

// Stats is a point-in-time view of a pool.
type Stats struct {
	// Workers is the configured pool size.
	Workers int
	// LiveWorkers counts workers whose goroutines are still running. It
	// drops below Workers only after a job panic or during shutdown.
	LiveWorkers int
	// SubmittedJobs counts jobs accepted by Execute.
	SubmittedJobs int64
	// CompletedJobs counts jobs that ran to completion.
	CompletedJobs int64
	// FailedJobs counts jobs that panicked.
	FailedJobs int64
	// AverageDuration is the mean wall-clock time of completed jobs.
	AverageDuration time.Duration
}
