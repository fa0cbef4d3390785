package executor

import (
	"time"

	"github.com/pion/logging"
)

// DefaultRunTimeout bounds how long a session may stay suspended.
const DefaultRunTimeout = 2 * time.Minute

// Config configures an Executor.
type Config struct {
	// RunTimeout bounds every run. Zero uses DefaultRunTimeout.
	RunTimeout time.Duration

	// Storage persists checkpoints. If nil, a MemoryStorage is used.
	Storage Storage

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.RunTimeout == 0 {
		c.RunTimeout = DefaultRunTimeout
	}
	if c.Storage == nil {
		c.Storage = NewMemoryStorage()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
