package authcode

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wrale/oauth2-authcode-capture/internal/query"
)

// DefaultTimeout is the inactivity window a session waits for a redirect
// when no explicit timeout is configured.
const DefaultTimeout = 5 * time.Minute

// Response bodies served by the redirect listener.
const (
	completeBody = "Authentication complete. You can close this window"
	defaultBody  = "This web service serves your redirect_uri"
)

// Server is a short-lived loopback HTTP listener that captures a single
// authorization code. It starts, waits for one state-validated redirect,
// then shuts down. Requests on any path are accepted; the response is
// picked from the query parameters alone:
//
//   - code present: capture it (subject to the state check)
//   - text and link present: render a landing page linking to the real
//     authorization URI
//   - otherwise: a plain informational message
type Server struct {
	port          int
	expectedState string
	timeout       time.Duration
	logger        *slog.Logger

	listener   net.Listener
	server     *http.Server
	resultCh   chan Result
	activityCh chan struct{}
	delivery   sync.Once

	mu   sync.Mutex
	code string
}

// NewServer creates a redirect listener for the given loopback port. Port
// zero binds an ephemeral port, reported by Port after Start. Note that
// most authorization servers require the redirect port to match the one
// registered for the client.
func NewServer(port int, opts ...Option) *Server {
	s := &Server{
		port:       port,
		timeout:    DefaultTimeout,
		logger:     slog.Default(),
		resultCh:   make(chan Result, 1),
		activityCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	return s
}

// Start binds the loopback listener and begins serving redirects. A bind
// failure (port in use, permission denied) is returned immediately and is
// fatal to the capture attempt.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("binding redirect listener on %s: %w", addr, err)
	}
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	// The path is deliberately not matched against the registered
	// redirect_uri; some authorization servers append their own segments.
	router.Get("/*", s.handleRedirect)

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.deliver(Result{Status: StatusAborted, Err: fmt.Errorf("serving redirects: %w", err)})
		}
	}()

	s.logger.Debug("redirect listener started", "port", s.port)
	return nil
}

// Port returns the bound loopback port. Valid after Start.
func (s *Server) Port() int {
	return s.port
}

// URL returns the base URL of the listener, suitable for use as the
// redirect_uri in an authorization request. Valid after Start.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Wait blocks until the session reaches a terminal state: a code was
// captured, the state check aborted the capture, no request arrived
// within the timeout of the last activity, or ctx was cancelled. The
// timeout is an inactivity window: every handled request, landing-page
// and informational hits included, restarts it. The listener is shut down
// and the port released on every path before Wait returns.
func (s *Server) Wait(ctx context.Context) Result {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	var res Result
loop:
	for {
		select {
		case res = <-s.resultCh:
			break loop
		case <-s.activityCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.timeout)
		case <-timer.C:
			res = Result{Status: StatusTimedOut, Err: ErrTimeout}
			break loop
		case <-ctx.Done():
			res = Result{Status: StatusAborted, Err: ctx.Err()}
			break loop
		}
	}

	s.Stop()
	s.logger.Debug("redirect listener stopped", "status", res.Status.String())
	return res
}

// Stop shuts the listener down and releases the port. It is safe to call
// multiple times and after a failed Start.
func (s *Server) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// handleRedirect dispatches one inbound request to the response mode its
// query parameters select. Only the code-capture path mutates session
// state.
func (s *Server) handleRedirect(w http.ResponseWriter, r *http.Request) {
	s.touch()

	params := query.Decode(r.URL.RawQuery)

	// Blank values count as absent, so ?code= falls through to the
	// default response.
	switch {
	case params.Get("code") != "":
		s.handleCode(w, params)
	case params.Get("text") != "" && params.Get("link") != "":
		s.handleLanding(w, params)
	default:
		s.respond(w, defaultBody)
	}
}

func (s *Server) handleCode(w http.ResponseWriter, params query.Values) {
	if s.expectedState != "" && params.Get("state") != s.expectedState {
		// No body: the browser tab is left showing whatever it last
		// rendered while the whole capture aborts.
		s.logger.Warn("redirect state mismatch, aborting capture")
		s.deliver(Result{Status: StatusAborted, Err: ErrStateMismatch})
		return
	}

	s.mu.Lock()
	if s.code == "" {
		s.code = params.Get("code")
	}
	code := s.code
	s.mu.Unlock()

	s.respond(w, completeBody)
	s.deliver(Result{Status: StatusCaptured, Code: code})
}

func (s *Server) handleLanding(w http.ResponseWriter, params query.Values) {
	// Landing parameters are produced by the orchestrator in this same
	// process, never by external input, so they render verbatim.
	body := fmt.Sprintf("<a href=%s>%s</a><hr/>%s",
		params.Get("link"), params.Get("text"), params.Get("exit_hint"))
	s.respond(w, body)
}

func (s *Server) respond(w http.ResponseWriter, body string) {
	contentType := "text/plain"
	if strings.HasPrefix(body, "<") {
		contentType = "text/html"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.WriteString(w, body); err != nil {
		s.logger.Debug("writing redirect response", "error", err)
	}
}

// touch restarts the inactivity window in Wait. Non-blocking: one pending
// notification is enough.
func (s *Server) touch() {
	select {
	case s.activityCh <- struct{}{}:
	default:
	}
}

// deliver publishes the terminal result exactly once. Later calls are
// dropped, so requests arriving after the first capture can never change
// the outcome.
func (s *Server) deliver(res Result) {
	s.delivery.Do(func() {
		s.resultCh <- res
	})
}
