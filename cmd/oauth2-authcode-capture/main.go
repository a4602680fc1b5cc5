// Command oauth2-authcode-capture acquires an OAuth 2.0 authorization code
// for a native application. It starts a web server listening on a loopback
// port, opens a browser to guide a human user through login, and prints
// the captured authorization code to stdout once the authorization server
// redirects back.
package main

import (
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Version is set by the build process
var Version = "dev"

func main() {
	// Load configuration defaults from environment
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
