package main

import (
	"os"

	cmd "github.com/mosaicnetworks/murmur/cmd/murmur/commands"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
