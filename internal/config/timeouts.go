package config

import "time"

// TimeoutConfig holds timeout settings for the HTTP server.
type TimeoutConfig struct {
	// Request bounds a single API request, including its database work. Default: 60s
	Request time.Duration

	// Read is the server's limit for reading a request including the body. Default: 15s
	Read time.Duration

	// Idle is the keep-alive limit between requests. Default: 120s
	Idle time.Duration

	// Shutdown is how long in-flight requests get to drain on stop. Default: 30s
	Shutdown time.Duration
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Request:  60 * time.Second,
		Read:     15 * time.Second,
		Idle:     120 * time.Second,
		Shutdown: 30 * time.Second,
	}
}

// LoadTimeouts overlays HTTP_* environment settings on the defaults.
func LoadTimeouts(l *Loader) TimeoutConfig {
	cfg := DefaultTimeoutConfig()
	cfg.Request = l.Duration("HTTP_REQUEST_TIMEOUT", cfg.Request)
	cfg.Read = l.Duration("HTTP_READ_TIMEOUT", cfg.Read)
	cfg.Idle = l.Duration("HTTP_IDLE_TIMEOUT", cfg.Idle)
	cfg.Shutdown = l.Duration("HTTP_SHUTDOWN_TIMEOUT", cfg.Shutdown)
	return cfg
}
