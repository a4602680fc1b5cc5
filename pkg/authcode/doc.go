// Package authcode captures an OAuth 2.0 authorization code for a native
// application that cannot host a browser-facing redirect page.
//
// It runs a short-lived HTTP listener on a loopback port, optionally opens
// a system browser at the caller's authorization URI, and blocks until the
// authorization server redirects the user's browser back with a code (or
// until the state check fails, or the wait times out). The listener then
// shuts down and releases the port.
//
// The one-call entry point is ObtainAuthCode. Callers needing finer
// control over the listener lifecycle can drive a Server directly:
//
//	srv := authcode.NewServer(8400, authcode.WithExpectedState(state))
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	res := srv.Wait(ctx)
//
// Token exchange is out of scope: the captured code is handed back to the
// caller, typically for use with golang.org/x/oauth2.
package authcode
