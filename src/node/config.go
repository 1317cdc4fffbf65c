package node

import (
	"fmt"
	"testing"
	"time"

	"github.com/mosaicnetworks/murmur/src/common"
	"github.com/sirupsen/logrus"
)

// Config holds the tunables of the event loop.
type Config struct {
	// HeartbeatTimeout is how long the loop waits for an inbound message
	// before running a sweep.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat"`

	// MaxSweepDelay bounds how long a steady stream of messages can postpone
	// a sweep. Zero disables the bound.
	MaxSweepDelay time.Duration `mapstructure:"max-sweep-delay"`

	// QueueSize is the capacity of the queue between the input reader and the
	// event loop.
	QueueSize int `mapstructure:"queue-size"`

	// Jitter stretches every heartbeat by a random amount up to one extra
	// heartbeat.
	Jitter bool `mapstructure:"jitter"`

	Logger *logrus.Entry
}

// NewConfig ...
func NewConfig(heartbeat time.Duration,
	maxSweepDelay time.Duration,
	queueSize int,
	logger *logrus.Entry) *Config {

	return &Config{
		HeartbeatTimeout: heartbeat,
		MaxSweepDelay:    maxSweepDelay,
		QueueSize:        queueSize,
		Logger:           logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		HeartbeatTimeout: 100 * time.Millisecond,
		MaxSweepDelay:    time.Second,
		QueueSize:        1024,
		Logger:           logrus.NewEntry(logger),
	}
}

// Validate rejects settings under which the loop cannot run or would never
// sweep before the end of input.
func (c *Config) Validate() error {
	if c.QueueSize < 0 {
		return fmt.Errorf("queue-size must not be negative, got %d", c.QueueSize)
	}
	if c.HeartbeatTimeout <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %s", c.HeartbeatTimeout)
	}
	if c.MaxSweepDelay < 0 {
		return fmt.Errorf("max-sweep-delay must not be negative, got %s", c.MaxSweepDelay)
	}
	return nil
}

// TestConfig returns the default configuration with a logger that writes
// through t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = logrus.NewEntry(common.NewTestLogger(t, logrus.DebugLevel))
	return config
}
