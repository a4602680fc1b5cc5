package authcode

// Status is the terminal state of a capture session.
type Status int

const (
	// StatusCaptured means a state-validated redirect delivered a code.
	StatusCaptured Status = iota

	// StatusAborted means the session stopped without a code: a state
	// mismatch, a listener failure, or caller cancellation.
	StatusAborted

	// StatusTimedOut means no valid redirect arrived within the timeout.
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusCaptured:
		return "captured"
	case StatusAborted:
		return "aborted"
	case StatusTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Result is the outcome of a capture session, delivered exactly once when
// the session reaches a terminal state.
type Result struct {
	// Status is the terminal state the session reached.
	Status Status

	// Code is the captured authorization code. Set only for StatusCaptured.
	Code string

	// Err explains a non-captured outcome, e.g. ErrStateMismatch or
	// ErrTimeout.
	Err error
}
