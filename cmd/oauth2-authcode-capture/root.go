package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/wrale/oauth2-authcode-capture/pkg/authcode"
)

func newRootCmd(cfg Config) *cobra.Command {
	var noState bool

	cmd := &cobra.Command{
		Use:   "oauth2-authcode-capture <endpoint> <client-id> <redirect-port>",
		Short: "Capture an OAuth 2.0 authorization code on a loopback port",
		Long: `Capture an OAuth 2.0 authorization code on a loopback port.

A local web server is started on the given redirect port, a browser is
opened at the authorization endpoint, and once the user finishes logging
in the authorization server redirects back to the local server. The
captured authorization code is printed to stdout.

The redirect port must match the redirect_uri registered for the client,
e.g. http://localhost:8400 for port 8400.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, clientID := args[0], args[1]
			port, err := strconv.Atoi(args[2])
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("invalid redirect port %q", args[2])
			}

			// A random state guards the capture against CSRF and code
			// injection unless explicitly disabled.
			state := ""
			if !noState {
				state = uuid.NewString()
			}

			code, err := authcode.ObtainAuthCode(cmd.Context(), authcode.Config{
				ListenPort:    port,
				AuthURI:       buildAuthCodeURL(endpoint, clientID, port, cfg.Scopes, state),
				LandingText:   cfg.LandingText,
				ExpectedState: state,
				Timeout:       cfg.Timeout,
				Logger:        slog.Default(),
			})
			if err != nil {
				return fmt.Errorf("obtaining authorization code: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), code)
			return nil
		},
	}

	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout,
		"how long to wait for the authorization redirect")
	cmd.Flags().StringVar(&cfg.LandingText, "landing-text", cfg.LandingText,
		"serve a local landing page with this link text instead of opening the authorization URI directly")
	cmd.Flags().StringSliceVar(&cfg.Scopes, "scope", cfg.Scopes,
		"OAuth scope to request (repeatable)")
	cmd.Flags().BoolVar(&noState, "no-state", false,
		"disable CSRF state validation")

	return cmd
}

// buildAuthCodeURL constructs the authorization request URI for the
// loopback redirect.
func buildAuthCodeURL(endpoint, clientID string, port int, scopes []string, state string) string {
	oauthCfg := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: fmt.Sprintf("http://localhost:%d", port),
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL: endpoint,
		},
	}
	return oauthCfg.AuthCodeURL(state)
}
