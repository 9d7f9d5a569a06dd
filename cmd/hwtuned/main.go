// Package main provides the hwtuned daemon: the long-running change detector
// that the service supervisor manages.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mola-TT/hwtune/pkg/daemon"
	"github.com/Mola-TT/hwtune/pkg/hwtune/config"
	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "hwtuned: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Inability to create the state directories is the only fatal startup
	// condition; everything later is retried on the next check.
	if err := config.EnsureStateDir(); err != nil {
		return err
	}
	if err := config.EnsureDataDir(); err != nil {
		return err
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
	}); err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()
	log := logging.Get("daemon")

	if daemon.IsRunning(cfg.Daemon.PIDPath) {
		return fmt.Errorf("hwtuned is already running (pid file: %s)", cfg.Daemon.PIDPath)
	}
	if err := daemon.WritePIDFile(cfg.Daemon.PIDPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() {
		if err := daemon.RemovePIDFile(cfg.Daemon.PIDPath); err != nil {
			log.Warn("failed to remove PID file", "error", err)
		}
	}()

	detector, err := daemon.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("hwtuned starting",
		"check_interval", cfg.Daemon.CheckInterval,
		"settle_delay", cfg.Daemon.SettleDelay,
		"spec_path", cfg.SpecPath)

	err = detector.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("hwtuned stopped")
	}
	return err
}
