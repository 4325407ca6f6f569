package engine

import "time"

// Defaults used by DefaultConfig and for zero-valued fields.
const (
	DefaultAddr        = ":4280"
	DefaultReadTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Addr is the TCP address to listen on. Use port 0 for an ephemeral port.
	Addr string

	// ReadTimeout bounds every read on an accepted connection. Zero selects
	// DefaultReadTimeout; a negative value disables the deadline.
	ReadTimeout time.Duration

	// ResponseDelay is slept once per connection before the response is
	// composed.
	ResponseDelay time.Duration

	// MaxLogEntries caps the request journal when the server creates its
	// own.
	MaxLogEntries int
}

// DefaultConfig returns the configuration used by stubd serve without flags.
func DefaultConfig() Config {
	return Config{
		Addr:        DefaultAddr,
		ReadTimeout: DefaultReadTimeout,
	}
}
