// Package browser opens URLs in a local web browser on a best-effort basis.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrUnavailable indicates no usable browser command could be found or
// started. Callers treat this as non-fatal: the human can still navigate
// to the URL manually.
var ErrUnavailable = errors.New("no usable browser found")

// Opener launches a URL in a web browser.
type Opener interface {
	Open(rawURL string) error
}

// command is one launch strategy: a binary plus any fixed arguments placed
// before the URL.
type command struct {
	name string
	args []string
}

// System opens URLs by trying well-known browsers in preference order
// before falling back to the platform's default launcher. Candidates that
// are not installed are skipped silently.
type System struct {
	goos     string
	lookPath func(file string) (string, error)
	start    func(name string, args ...string) error
}

// NewSystem creates an Opener for the current platform.
func NewSystem() *System {
	return &System{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			// Fire-and-forget: the browser keeps running in the background.
			return exec.Command(name, args...).Start()
		},
	}
}

// Open launches rawURL with the first candidate that starts successfully.
// It returns ErrUnavailable (wrapping the individual failures) only when
// every candidate fails.
func (s *System) Open(rawURL string) error {
	var errs []error
	for _, c := range commandsFor(s.goos) {
		if _, err := s.lookPath(c.name); err != nil {
			continue // not installed, try next candidate
		}
		if err := s.start(c.name, append(c.args, rawURL)...); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		return nil
	}
	return errors.Join(ErrUnavailable, errors.Join(errs...))
}

// commandsFor returns launch candidates in preference order. Explicit
// browsers are only probed on Linux, where the default-browser
// registration is often missing; macOS and Windows route through the
// platform launcher directly.
func commandsFor(goos string) []command {
	switch goos {
	case "darwin":
		return []command{{name: "open"}}
	case "windows":
		return []command{{name: "cmd", args: []string{"/c", "start"}}}
	default:
		return []command{
			{name: "google-chrome"},
			{name: "chromium"},
			{name: "firefox"},
			{name: "xdg-open"},
		}
	}
}
