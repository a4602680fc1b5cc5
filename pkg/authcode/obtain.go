package authcode

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/wrale/oauth2-authcode-capture/pkg/browser"
)

// Config describes one capture attempt for ObtainAuthCode.
type Config struct {
	// ListenPort is the loopback port for the redirect listener. It should
	// match the port in the redirect_uri registered for the client.
	ListenPort int

	// AuthURI is the full authorization request URI to send the user to.
	// If empty, no browser is opened and the listener simply waits.
	AuthURI string

	// LandingText, when set, serves a local landing page first: the
	// browser opens the loopback listener showing this text as a link to
	// AuthURI, instead of opening AuthURI directly.
	LandingText string

	// ExpectedState, when set, must be echoed back by the authorization
	// server; a mismatch aborts the capture with ErrStateMismatch.
	ExpectedState string

	// Timeout bounds the blocking wait. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Opener launches the browser. Defaults to browser.NewSystem().
	Opener browser.Opener

	// Logger receives lifecycle and warning events. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// ObtainAuthCode runs the full capture flow: open a browser at the
// authorization URI (or a local landing page pointing at it), then block
// until the redirect delivers a code, the state check fails, or the
// timeout elapses. It returns the captured code, or an error for every
// other terminal state. Browser-open failures are logged and ignored; the
// human can navigate manually.
func ObtainAuthCode(ctx context.Context, cfg Config) (string, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opener := cfg.Opener
	if opener == nil {
		opener = browser.NewSystem()
	}

	target := cfg.AuthURI
	if cfg.LandingText != "" {
		// The hint references an auth_code=exit escape hatch that the
		// handler does not special-case; see DESIGN.md.
		exitHint := fmt.Sprintf("Visit http://localhost:%d?auth_code=exit to abort", cfg.ListenPort)
		logger.Warn(exitHint)

		q := url.Values{}
		q.Set("text", cfg.LandingText)
		q.Set("link", cfg.AuthURI)
		q.Set("exit_hint", exitHint)
		target = fmt.Sprintf("http://localhost:%d?%s", cfg.ListenPort, q.Encode())
	}

	if target != "" {
		logger.Info("open a browser on this device to visit", "url", target)
		if err := opener.Open(target); err != nil {
			logger.Warn("could not open a browser automatically, please visit the URL manually",
				"url", target, "error", err)
		}
	}

	srv := NewServer(cfg.ListenPort,
		WithTimeout(cfg.Timeout),
		WithExpectedState(cfg.ExpectedState),
		WithLogger(logger),
	)
	if err := srv.Start(); err != nil {
		return "", err
	}

	res := srv.Wait(ctx)
	if res.Status != StatusCaptured {
		return "", res.Err
	}
	return res.Code, nil
}
