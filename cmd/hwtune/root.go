package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/hwtune/config"
	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "hwtune",
		Short: "Hardware-adaptive configuration optimizer",
		Long: `Hwtune senses host CPU, memory, and disk capacity and derives tuning
parameters for the managed services (n8n, docker, nginx, redis, netdata).
A background daemon re-checks hardware on a timer and re-optimizes the
service configuration when a material change is detected.

Examples:
  hwtune show-specs           # Print detected hardware
  hwtune show-params          # Print the parameters that would be applied
  hwtune check-once           # One detection+diff pass (exit 1 on change)
  hwtune force-optimize       # Apply tuning unconditionally
  hwtune status               # Daemon and unit status
  hwtune service install      # Install the systemd unit`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/hwtune/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			printError("%v", err)
		}
	}
	return err
}

// exitError carries a specific process exit code through cobra.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// setup loads configuration and initializes logging for a CLI invocation.
func setup() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	consoleLevel := "warn"
	if verbose {
		consoleLevel = "debug"
	}
	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
	}
	if err := logging.Init(logCfg); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	return cfg, nil
}

// printInfo prints a message to stdout.
func printInfo(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
