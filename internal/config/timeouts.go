package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Backend           time.Duration // Timeout for a single Infoblox or hcloud API call
	Apply             time.Duration // Timeout for one full apply run
	RetryMaxAttempts  int           // Maximum number of retry attempts for transient reads
	RetryInitialDelay time.Duration // Initial delay between retries
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - NETRESERVE_TIMEOUT_BACKEND (default: 30s)
//   - NETRESERVE_TIMEOUT_APPLY (default: 10m)
//   - NETRESERVE_RETRY_MAX_ATTEMPTS (default: 4)
//   - NETRESERVE_RETRY_INITIAL_DELAY (default: 500ms)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Backend:           parseDuration("NETRESERVE_TIMEOUT_BACKEND", 30*time.Second),
		Apply:             parseDuration("NETRESERVE_TIMEOUT_APPLY", 10*time.Minute),
		RetryMaxAttempts:  parseInt("NETRESERVE_RETRY_MAX_ATTEMPTS", 4),
		RetryInitialDelay: parseDuration("NETRESERVE_RETRY_INITIAL_DELAY", 500*time.Millisecond),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
