package pool

// messageQueue delivers messages from producers to workers with FIFO order
// per producer and exactly-one-consumer semantics per message. Two policies
// are supported:
//
//   - Unbounded (depth == 0, the default): producers append to an in-memory
//     buffer via a pump goroutine, so send never blocks regardless of how
//     busy the workers are.
//   - Bounded (depth > 0): a single buffered channel; send blocks once the
//     buffer is full until a worker frees space.
//
// In both policies a channel receive removes each message, so dequeue is
// naturally exclusive across workers while job execution happens entirely
// outside the queue.
type messageQueue struct {
	in  chan message
	out chan message
	// stop ends the pump goroutine and releases any sender still blocked
	// once no worker will ever receive again.
	stop chan struct{}
}

// newMessageQueue creates a queue with the given depth. Depth zero selects
// the unbounded policy.
func newMessageQueue(depth int) *messageQueue {
	if depth > 0 {
		ch := make(chan message, depth)
		return &messageQueue{in: ch, out: ch, stop: make(chan struct{})}
	}

	q := &messageQueue{
		in:   make(chan message),
		out:  make(chan message),
		stop: make(chan struct{}),
	}
	go q.pump()

	return q
}

// send enqueues one message. Under the unbounded policy this only waits for
// the pump to take the message, which is never gated on worker progress.
// Under the bounded policy it blocks while the buffer is full. A send that
// is still pending when the queue shuts down is dropped.
func (q *messageQueue) send(msg message) {
	select {
	case q.in <- msg:
	case <-q.stop:
	}
}

// recv returns the channel workers receive from.
func (q *messageQueue) recv() <-chan message {
	return q.out
}

// shutdown releases the pump goroutine and any blocked senders. Messages
// still buffered at this point are discarded; the pool only calls shutdown
// after every worker has been joined, so nothing can still be waiting for
// them.
func (q *messageQueue) shutdown() {
	close(q.stop)
}

// pump shuttles messages from the input channel into the output channel
// through a slice buffer, preserving arrival order. It parks on input when
// the buffer is empty and offers the head of the buffer to workers whenever
// one is available.
func (q *messageQueue) pump() {
	var buf []message

	for {
		var out chan message
		var next message
		if len(buf) > 0 {
			out = q.out
			next = buf[0]
		}

		select {
		case msg := <-q.in:
			buf = append(buf, msg)
		case out <- next:
			buf = buf[1:]
		case <-q.stop:
			return
		}
	}
}
