package authcode

import "errors"

// Common errors terminating a capture session
var (
	// ErrStateMismatch indicates the redirect carried a state value that
	// does not match the expected one. This aborts the whole capture, not
	// just the offending request: a bad state is a protocol violation.
	ErrStateMismatch = errors.New("authorization state mismatch")

	// ErrTimeout indicates no valid redirect arrived before the deadline.
	ErrTimeout = errors.New("timed out waiting for authorization redirect")
)
