package pool

// Job is a single one-shot unit of deferred work. A Job takes no arguments,
// returns nothing, and is executed exactly once by exactly one worker. Any
// result or completion signalling a caller needs must be captured inside the
// Job itself (for example by writing to a channel the caller owns).
type Job func()

// messageKind tags the two variants a work-queue message can carry.
type messageKind int

const (
	// msgNewJob carries a Job to be executed by one worker.
	msgNewJob messageKind = iota
	// msgTerminate instructs the receiving worker to exit its loop.
	msgTerminate
)

// String returns the string representation of the message kind.
func (k messageKind) String() string {
	switch k {
	case msgNewJob:
		return "new-job"
	case msgTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// message is the envelope sent through the work queue. It is a closed sum:
// either a new-job message carrying a Job, or a terminate signal with no
// payload. Workers switch on the kind, so a terminate can never be mistaken
// for work.
type message struct {
	kind messageKind
	job  Job
}

// newJobMessage wraps a Job for delivery to one worker.
func newJobMessage(job Job) message {
	return message{kind: msgNewJob, job: job}
}

// terminateMessage signals one worker to stop after its current job.
func terminateMessage() message {
	return message{kind: msgTerminate}
}
