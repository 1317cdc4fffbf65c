package commands

import (
	"time"

	"github.com/mosaicnetworks/murmur/src/config"
	"github.com/mosaicnetworks/murmur/src/net"
)

//CLIConfig contains configuration for the murmur commands
type CLIConfig struct {
	Murmur config.Config `mapstructure:",squash"`

	// Simulation settings, only used by the simulate command.
	Nodes     int           `mapstructure:"nodes"`
	Topology  string        `mapstructure:"topology"`
	DropRate  float64       `mapstructure:"drop-rate"`
	Seed      int64         `mapstructure:"seed"`
	Values    int           `mapstructure:"values"`
	Timeout   time.Duration `mapstructure:"timeout"`
	InboxSize int           `mapstructure:"inbox-size"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Murmur:    *config.NewDefaultConfig(),
		Nodes:     5,
		Topology:  net.TopologyGrid,
		DropRate:  0,
		Seed:      1,
		Values:    20,
		Timeout:   30 * time.Second,
		InboxSize: net.DefaultConfig().InboxSize,
	}
}
