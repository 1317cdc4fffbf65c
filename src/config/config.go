package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/murmur/src/common"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// DefaultConfigName is the base name, without extension, of the optional
// configuration file in the data directory.
const DefaultConfigName = "murmur"

// Default configuration values.
const (
	DefaultLogLevel         = "info"
	DefaultHeartbeatTimeout = 100 * time.Millisecond
	DefaultMaxSweepDelay    = 1000 * time.Millisecond
	DefaultQueueSize        = 1024
	DefaultJitter           = false
)

// Config contains all the configuration properties of a murmur node.
type Config struct {
	// DataDir is where murmur looks for its configuration file.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of every log entry. Logs never go to
	// stdout, which carries the protocol.
	LogFile string `mapstructure:"log-file"`

	// HeartbeatTimeout is how long the node waits for input before it runs a
	// gossip sweep.
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat"`

	// MaxSweepDelay bounds how long a busy input can postpone a sweep. 0
	// disables the bound.
	MaxSweepDelay time.Duration `mapstructure:"max-sweep-delay"`

	// QueueSize is the number of decoded messages that can wait for the event
	// loop.
	QueueSize int `mapstructure:"queue-size"`

	// Jitter randomises every heartbeat between one and two timeouts.
	Jitter bool `mapstructure:"jitter"`

	// ServiceAddr is the address:port of the optional HTTP service exposing
	// stats and Prometheus metrics. Empty disables it.
	ServiceAddr string `mapstructure:"service-listen"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:          DefaultDataDir(),
		LogLevel:         DefaultLogLevel,
		HeartbeatTimeout: DefaultHeartbeatTimeout,
		MaxSweepDelay:    DefaultMaxSweepDelay,
		QueueSize:        DefaultQueueSize,
		Jitter:           DefaultJitter,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// NodeConfig converts the node-level options.
func (c *Config) NodeConfig() *node.Config {
	conf := node.NewConfig(
		c.HeartbeatTimeout,
		c.MaxSweepDelay,
		c.QueueSize,
		c.Logger(),
	)
	conf.Jitter = c.Jitter
	return conf
}

// Validate checks the node-level options.
func (c *Config) Validate() error {
	return c.NodeConfig().Validate()
}

// Logger returns a formatted logrus Entry, with prefix set to "murmur".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Out = os.Stderr
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				lfshook.PathMap{
					logrus.PanicLevel: c.LogFile,
					logrus.FatalLevel: c.LogFile,
					logrus.ErrorLevel: c.LogFile,
					logrus.WarnLevel:  c.LogFile,
					logrus.InfoLevel:  c.LogFile,
					logrus.DebugLevel: c.LogFile,
				},
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "murmur")
}

// DefaultDataDir return the default directory name for top-level murmur
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Murmur")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Murmur")
		} else {
			return filepath.Join(home, ".murmur")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
