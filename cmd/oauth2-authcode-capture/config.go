package main

import "time"

// Config holds defaults loaded from environment variables. Command-line
// flags override these.
type Config struct {
	Timeout     time.Duration `envconfig:"AUTHCODE_TIMEOUT" default:"5m"`
	LandingText string        `envconfig:"AUTHCODE_LANDING_TEXT"`
	Scopes      []string      `envconfig:"AUTHCODE_SCOPES"`
}
