package daemon

import (
	"fmt"

	"github.com/Mola-TT/hwtune/pkg/hwtune/backup"
	"github.com/Mola-TT/hwtune/pkg/hwtune/config"
	"github.com/Mola-TT/hwtune/pkg/hwtune/confwriter"
	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/notify"
	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
	"github.com/Mola-TT/hwtune/pkg/hwtune/specstore"
)

// FromConfig is the composition root: it builds every component from the
// loaded configuration and wires them into a Detector. Both the CLI one-shot
// commands and the daemon binary assemble through here.
func FromConfig(cfg *config.Config) (*Detector, error) {
	backups, err := backup.NewManager(cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("initializing backup manager: %w", err)
	}

	inspector := hardware.NewInspector(cfg.DiskRoot)
	store := specstore.New(cfg.SpecPath)
	writer := confwriter.New(confwriter.Artifacts{
		N8NEnv:      cfg.Artifacts.N8NEnv,
		ComposeFile: cfg.Artifacts.ComposeFile,
		NginxConf:   cfg.Artifacts.NginxConf,
		RedisConf:   cfg.Artifacts.RedisConf,
		NetdataConf: cfg.Artifacts.NetdataConf,
	})
	notifier := notify.New(notify.Config{
		SMTPHost:     cfg.Notify.SMTPHost,
		SMTPPort:     cfg.Notify.SMTPPort,
		Username:     cfg.Notify.Username,
		Password:     cfg.Notify.Password,
		From:         cfg.Notify.From,
		To:           cfg.Notify.To,
		Cooldown:     cfg.Notify.Cooldown,
		CooldownPath: cfg.Notify.CooldownPath,
	})

	opts := Options{
		CheckInterval: cfg.Daemon.CheckInterval,
		SettleDelay:   cfg.Daemon.SettleDelay,
		Thresholds: Thresholds{
			CPUCores: cfg.Thresholds.CPUCores,
			MemoryGB: cfg.Thresholds.MemoryGB,
			DiskGB:   cfg.Thresholds.DiskGB,
		},
		Ratios:     RatiosFromConfig(cfg.Ratios),
		StatusPath: cfg.Daemon.StatusPath,
	}

	return New(inspector, store, writer, backups, notifier, opts), nil
}

// RatiosFromConfig converts configured ratios into calculator inputs.
func RatiosFromConfig(r config.RatiosConfig) params.Ratios {
	return params.Ratios{
		ExecutionProcess:       r.ExecutionProcess,
		Memory:                 r.Memory,
		DockerMemory:           r.DockerMemory,
		DockerCPU:              r.DockerCPU,
		WorkerProcess:          r.WorkerProcess,
		WorkerConnectionsPerGB: r.WorkerConnectionsPerGB,
		CacheMemory:            r.CacheMemory,
		MetricsMemory:          r.MetricsMemory,
	}
}
