package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

// NewRootCmd returns the murmur command tree with fresh default settings.
func NewRootCmd() *cobra.Command {
	_config = NewDefaultCLIConfig()

	rootCmd := &cobra.Command{
		Use:              "murmur",
		Short:            "gossip nodes for Maelstrom-style workloads",
		TraverseChildren: true,
	}

	rootCmd.AddCommand(
		NewVersionCmd(),
		NewBroadcastCmd(),
		NewEchoCmd(),
		NewUniqueIDsCmd(),
		NewSimulateCmd(),
	)

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	return rootCmd
}
