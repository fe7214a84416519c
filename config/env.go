package config

import (
	"os"
	"strings"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV. CI=true overrides it, as CI runners share the
// test database setup but never set ENV.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	return ParseEnvironment(os.Getenv("ENV"))
}

// ParseEnvironment maps a name onto an Environment. Anything unknown is
// development.
func ParseEnvironment(name string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(name))); env {
	case Production, Test, CI:
		return env
	default:
		return Development
	}
}

// RequiresExternalKeys reports whether the environment talks to the real
// nutrition API and must therefore carry its key.
func (e Environment) RequiresExternalKeys() bool {
	return e == Production || e == Development
}

// Verbose reports whether logs should use the human-readable development
// encoder.
func (e Environment) Verbose() bool {
	return e == Development || e == Test
}
