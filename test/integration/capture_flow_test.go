package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/wrale/oauth2-authcode-capture/pkg/authcode"
)

// Timeouts for the end-to-end flow
const (
	FlowTimeout   = 10 * time.Second
	RetryInterval = 20 * time.Millisecond
)

// autoApproveServer simulates an authorization server that approves every
// request instantly: it redirects the "browser" straight back to the
// redirect_uri with an authorization code and the echoed state.
func autoApproveServer(t *testing.T, code string, stateOverride func(string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		redirectURI := q.Get("redirect_uri")
		if redirectURI == "" {
			http.Error(w, "missing redirect_uri", http.StatusBadRequest)
			return
		}

		state := q.Get("state")
		if stateOverride != nil {
			state = stateOverride(state)
		}

		loc := fmt.Sprintf("%s?%s", redirectURI, url.Values{
			"code":  {code},
			"state": {state},
		}.Encode())
		http.Redirect(w, r, loc, http.StatusFound)
	}))
}

// headlessBrowser drives the authorization URI the way a browser would,
// following the redirect chain back to the loopback listener. The
// orchestrator opens the browser before the listener binds, so requests
// are retried until the loopback side accepts.
type headlessBrowser struct {
	t *testing.T
}

func (b *headlessBrowser) Open(rawURL string) error {
	go func() {
		client := &http.Client{Timeout: 2 * time.Second}
		deadline := time.Now().Add(FlowTimeout)
		for time.Now().Before(deadline) {
			resp, err := client.Get(rawURL)
			if err == nil {
				_, _ = io.ReadAll(resp.Body)
				resp.Body.Close()
				return
			}
			time.Sleep(RetryInterval)
		}
		b.t.Logf("headless browser gave up on %s", rawURL)
	}()
	return nil
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("allocating port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestCaptureFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	authServer := autoApproveServer(t, "integration-code", nil)
	defer authServer.Close()

	port := freePort(t)
	state := "integration-state"

	// Build the authorization URI the same way the CLI does.
	oauthCfg := &oauth2.Config{
		ClientID:    "integration-client",
		RedirectURL: fmt.Sprintf("http://localhost:%d", port),
		Endpoint:    oauth2.Endpoint{AuthURL: authServer.URL},
	}

	code, err := authcode.ObtainAuthCode(context.Background(), authcode.Config{
		ListenPort:    port,
		AuthURI:       oauthCfg.AuthCodeURL(state),
		ExpectedState: state,
		Timeout:       FlowTimeout,
		Opener:        &headlessBrowser{t: t},
	})
	if err != nil {
		t.Fatalf("ObtainAuthCode failed: %v", err)
	}
	if code != "integration-code" {
		t.Errorf("expected code %q, got %q", "integration-code", code)
	}
}

func TestCaptureFlowStateTampering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// The authorization server returns a forged state value.
	authServer := autoApproveServer(t, "integration-code", func(string) string {
		return "forged"
	})
	defer authServer.Close()

	port := freePort(t)

	oauthCfg := &oauth2.Config{
		ClientID:    "integration-client",
		RedirectURL: fmt.Sprintf("http://localhost:%d", port),
		Endpoint:    oauth2.Endpoint{AuthURL: authServer.URL},
	}

	code, err := authcode.ObtainAuthCode(context.Background(), authcode.Config{
		ListenPort:    port,
		AuthURI:       oauthCfg.AuthCodeURL("integration-state"),
		ExpectedState: "integration-state",
		Timeout:       FlowTimeout,
		Opener:        &headlessBrowser{t: t},
	})
	if err != authcode.ErrStateMismatch {
		t.Fatalf("expected ErrStateMismatch, got %v", err)
	}
	if code != "" {
		t.Errorf("expected no code on tampered state, got %q", code)
	}
}

func TestCaptureFlowLandingPage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	authServer := autoApproveServer(t, "integration-code", nil)
	defer authServer.Close()

	port := freePort(t)

	// The headless browser lands on the local page first; a second client
	// plays the human clicking the rendered link.
	clicked := make(chan string, 1)
	opener := &linkFollowingBrowser{t: t, clicked: clicked}

	oauthCfg := &oauth2.Config{
		ClientID:    "integration-client",
		RedirectURL: fmt.Sprintf("http://localhost:%d", port),
		Endpoint:    oauth2.Endpoint{AuthURL: authServer.URL},
	}

	code, err := authcode.ObtainAuthCode(context.Background(), authcode.Config{
		ListenPort:  port,
		AuthURI:     oauthCfg.AuthCodeURL(""),
		LandingText: "Sign in",
		Timeout:     FlowTimeout,
		Opener:      opener,
	})
	if err != nil {
		t.Fatalf("ObtainAuthCode failed: %v", err)
	}
	if code != "integration-code" {
		t.Errorf("expected code %q, got %q", "integration-code", code)
	}

	select {
	case body := <-clicked:
		if !strings.Contains(body, "Sign in") {
			t.Errorf("landing page missing link text, got %q", body)
		}
	default:
		t.Error("landing page was never rendered")
	}
}

// linkFollowingBrowser fetches the landing page, extracts the href from
// the rendered anchor, and follows it like a user clicking the link.
type linkFollowingBrowser struct {
	t       *testing.T
	clicked chan string
}

func (b *linkFollowingBrowser) Open(rawURL string) error {
	go func() {
		client := &http.Client{Timeout: 2 * time.Second}
		deadline := time.Now().Add(FlowTimeout)
		for time.Now().Before(deadline) {
			resp, err := client.Get(rawURL)
			if err != nil {
				time.Sleep(RetryInterval)
				continue
			}
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			body := string(raw)
			href := extractHref(body)
			if href == "" {
				b.t.Logf("no anchor found in landing page: %q", body)
				return
			}
			select {
			case b.clicked <- body:
			default:
			}

			// Follow the link: the auth server redirect lands back on the
			// loopback listener.
			if resp, err := client.Get(href); err == nil {
				_, _ = io.ReadAll(resp.Body)
				resp.Body.Close()
			}
			return
		}
	}()
	return nil
}

// extractHref pulls the target out of the unquoted-attribute anchor the
// listener renders: <a href=URL>text</a>.
func extractHref(body string) string {
	const prefix = "<a href="
	start := strings.Index(body, prefix)
	if start < 0 {
		return ""
	}
	rest := body[start+len(prefix):]
	end := strings.Index(rest, ">")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
