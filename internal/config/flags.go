package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Options are the command-line inputs of a measurement run.
type Options struct {
	ConfigPath string
	RunDir     string
	LogLevel   string
}

// RegisterFlags registers the run flags on a cobra command and marks
// --config as required.
func RegisterFlags(cmd *cobra.Command, opts *Options) {
	configureFlags(cmd.Flags(), opts)
	_ = cmd.MarkFlagRequired("config")
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet, opts *Options) {
	flags.StringVar(&opts.ConfigPath, "config", "", "YAML configuration file path")
	flags.StringVar(&opts.RunDir, "run-dir", "", `Directory to store the run outputs ("pwd" or empty creates length_run_<timestamp> in the current directory)`)
	flags.StringVar(&opts.LogLevel, "log-level", "debug", "Log level (debug, info, warn, error)")
}
