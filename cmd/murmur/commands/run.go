package commands

import (
	"github.com/mosaicnetworks/murmur/src/broadcast"
	"github.com/mosaicnetworks/murmur/src/config"
	"github.com/mosaicnetworks/murmur/src/echo"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/mosaicnetworks/murmur/src/service"
	"github.com/mosaicnetworks/murmur/src/uniqueids"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewBroadcastCmd returns the command that runs a broadcast node
func NewBroadcastCmd() *cobra.Command {
	return newWorkloadCmd("broadcast", "Run a broadcast node on stdin/stdout", broadcast.New)
}

//NewEchoCmd returns the command that runs an echo node
func NewEchoCmd() *cobra.Command {
	return newWorkloadCmd("echo", "Run an echo node on stdin/stdout", echo.New)
}

//NewUniqueIDsCmd returns the command that runs a unique-id generator node
func NewUniqueIDsCmd() *cobra.Command {
	return newWorkloadCmd("unique-ids", "Run a unique-id node on stdin/stdout", uniqueids.New)
}

func newWorkloadCmd(use, short string, factory node.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd, factory)
		},
	}
	AddNodeFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, factory node.Factory) error {
	n := node.NewNode(
		_config.Murmur.NodeConfig(),
		factory,
		cmd.InOrStdin(),
		cmd.OutOrStdout(),
	)

	if _config.Murmur.ServiceAddr != "" {
		srv, err := startService(map[string]*node.Node{"": n})
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	if err := n.Run(); err != nil {
		_config.Murmur.Logger().WithError(err).Error("Node failed")
		return err
	}

	return nil
}

func startService(nodes map[string]*node.Node) (*service.Service, error) {
	srv := service.NewService(_config.Murmur.ServiceAddr, _config.Murmur.Logger())

	for name, n := range nodes {
		if err := srv.Register(name, n); err != nil {
			return nil, err
		}
	}

	if err := srv.Listen(); err != nil {
		return nil, err
	}

	go srv.Serve()

	return srv, nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddNodeFlags adds the flags shared by every command that runs nodes
func AddNodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.Murmur.DataDir, "Directory searched for murmur.toml, murmur.yaml or murmur.json")
	cmd.Flags().String("log", _config.Murmur.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.Murmur.LogFile, "Also write logs to this file")

	// Node configuration
	cmd.Flags().Duration("heartbeat", _config.Murmur.HeartbeatTimeout, "Time without input before a gossip sweep")
	cmd.Flags().Duration("max-sweep-delay", _config.Murmur.MaxSweepDelay, "Longest a busy input can postpone a sweep (0 disables)")
	cmd.Flags().Int("queue-size", _config.Murmur.QueueSize, "Decoded messages waiting for the event loop")
	cmd.Flags().Bool("jitter", _config.Murmur.Jitter, "Randomise the heartbeat between one and two timeouts")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.Murmur.ServiceAddr, "Listen IP:Port for the HTTP stats service (disabled when empty)")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	if err := _config.Murmur.Validate(); err != nil {
		return err
	}

	_config.Murmur.Logger().WithFields(logrus.Fields{
		"murmur.DataDir":          _config.Murmur.DataDir,
		"murmur.LogLevel":         _config.Murmur.LogLevel,
		"murmur.LogFile":          _config.Murmur.LogFile,
		"murmur.HeartbeatTimeout": _config.Murmur.HeartbeatTimeout,
		"murmur.MaxSweepDelay":    _config.Murmur.MaxSweepDelay,
		"murmur.QueueSize":        _config.Murmur.QueueSize,
		"murmur.Jitter":           _config.Murmur.Jitter,
		"murmur.ServiceAddr":      _config.Murmur.ServiceAddr,
	}).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	v := viper.New()

	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := v.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/murmur.toml (.json, .yaml also work)
	v.SetConfigName(config.DefaultConfigName) // name of config file (without extension)
	v.AddConfigPath(_config.Murmur.DataDir)   // search root directory

	// If a config file is found, read it in. Nothing may log before the
	// second unmarshal.
	var used string
	if err := v.ReadInConfig(); err == nil {
		used = v.ConfigFileUsed()
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return err
	}

	// second unmarshal to read from config file
	if err := v.Unmarshal(_config); err != nil {
		return err
	}

	if used != "" {
		_config.Murmur.Logger().Debugf("Using config file: %s", used)
	} else {
		_config.Murmur.Logger().Debugf("No config file found in: %s", _config.Murmur.DataDir)
	}

	return nil
}
