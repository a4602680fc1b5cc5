package authcode

import (
	"log/slog"
	"time"
)

// Option configures a redirect Server.
type Option func(*Server)

// WithTimeout sets the inactivity window: the session terminates as timed
// out when no request arrives within d of the last handled request (or of
// the start of the wait).
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithExpectedState requires inbound code-carrying redirects to present
// this state value. A redirect with a missing or different state aborts
// the capture with ErrStateMismatch. An empty value disables the check.
func WithExpectedState(state string) Option {
	return func(s *Server) {
		s.expectedState = state
	}
}

// WithLogger sets the logger used for listener lifecycle and validation
// events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}
