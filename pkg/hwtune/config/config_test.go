package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Point XDG at an empty directory so no real config file is picked up.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Ratios.ExecutionProcess)
	assert.Equal(t, 0.75, cfg.Ratios.DockerMemory)
	assert.Equal(t, 0.5, cfg.Ratios.DockerCPU)
	assert.Equal(t, 1.0, cfg.Ratios.WorkerProcess)
	assert.Equal(t, 256, cfg.Ratios.WorkerConnectionsPerGB)
	assert.Equal(t, 0.15, cfg.Ratios.CacheMemory)

	assert.Equal(t, 1, cfg.Thresholds.CPUCores)
	assert.Equal(t, 1, cfg.Thresholds.MemoryGB)
	assert.Equal(t, 10, cfg.Thresholds.DiskGB)

	assert.Equal(t, time.Hour, cfg.Daemon.CheckInterval)
	assert.Equal(t, 30*time.Second, cfg.Daemon.SettleDelay)

	assert.Equal(t, "/opt/n8n/.env", cfg.Artifacts.N8NEnv)
	assert.Equal(t, "/etc/redis/redis.conf", cfg.Artifacts.RedisConf)

	assert.Equal(t, 587, cfg.Notify.SMTPPort)
	assert.Equal(t, 30*time.Minute, cfg.Notify.Cooldown)
	assert.Empty(t, cfg.Notify.SMTPHost, "notification is unconfigured by default")

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/", cfg.DiskRoot)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "hwtune")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
ratios:
  execution_process: 0.5
thresholds:
  disk_gb: 50
daemon:
  check_interval: 15m
notify:
  smtp_host: smtp.example.com
  from: hwtune@example.com
  to:
    - ops@example.com
`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Ratios.ExecutionProcess)
	assert.Equal(t, 0.75, cfg.Ratios.Memory, "untouched keys keep their defaults")
	assert.Equal(t, 50, cfg.Thresholds.DiskGB)
	assert.Equal(t, 15*time.Minute, cfg.Daemon.CheckInterval)
	assert.Equal(t, "smtp.example.com", cfg.Notify.SMTPHost)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Notify.To)
}

func TestLoadFile_MissingFileFails(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFile_Explicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwtune.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spec_path: /var/lib/hwtune/spec.json\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/hwtune/spec.json", cfg.SpecPath)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Ratios: RatiosConfig{
				ExecutionProcess:       0.75,
				Memory:                 0.75,
				DockerMemory:           0.75,
				DockerCPU:              0.5,
				WorkerProcess:          1.0,
				WorkerConnectionsPerGB: 256,
				CacheMemory:            0.15,
				MetricsMemory:          0.02,
			},
			Thresholds: ThresholdsConfig{CPUCores: 1, MemoryGB: 1, DiskGB: 10},
			Daemon:     DaemonConfig{CheckInterval: time.Hour},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero fraction",
			mutate:  func(c *Config) { c.Ratios.CacheMemory = 0 },
			wantErr: "ratios.cache_memory",
		},
		{
			name:    "fraction above one",
			mutate:  func(c *Config) { c.Ratios.Memory = 1.5 },
			wantErr: "ratios.memory",
		},
		{
			name:    "oversized multiplier",
			mutate:  func(c *Config) { c.Ratios.WorkerProcess = 5 },
			wantErr: "ratios.worker_process",
		},
		{
			name:    "zero worker connections",
			mutate:  func(c *Config) { c.Ratios.WorkerConnectionsPerGB = 0 },
			wantErr: "worker_connections_per_gb",
		},
		{
			name:    "zero threshold",
			mutate:  func(c *Config) { c.Thresholds.MemoryGB = 0 },
			wantErr: "thresholds",
		},
		{
			name:    "sub-second interval",
			mutate:  func(c *Config) { c.Daemon.CheckInterval = 100 * time.Millisecond },
			wantErr: "check_interval",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStatePaths_ShareStateDir(t *testing.T) {
	for _, p := range []string{DefaultSpecPath(), DefaultCooldownPath(), DefaultPIDPath(), DefaultStatusPath(), DefaultLogPath()} {
		assert.Equal(t, StateDir(), filepath.Dir(p))
	}
	assert.Equal(t, DataDir(), filepath.Dir(DefaultBackupDir()))
}
