// Package config defines the configuration of a murmur node.
//
// The same Config serves every workload and the in-memory simulator. Values
// come from defaults, then from an optional murmur.toml, murmur.yaml or
// murmur.json in Config.DataDir, then from command-line flags. Logs go to
// stderr and, when LogFile is set, to that file as well.
package config
