package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RatiosConfig holds the named sizing ratios read from configuration.
// The optimizer treats these as read-only inputs to parameter calculation.
type RatiosConfig struct {
	ExecutionProcess       float64 `mapstructure:"execution_process"`
	Memory                 float64 `mapstructure:"memory"`
	DockerMemory           float64 `mapstructure:"docker_memory"`
	DockerCPU              float64 `mapstructure:"docker_cpu"`
	WorkerProcess          float64 `mapstructure:"worker_process"`
	WorkerConnectionsPerGB int     `mapstructure:"worker_connections_per_gb"`
	CacheMemory            float64 `mapstructure:"cache_memory"`
	MetricsMemory          float64 `mapstructure:"metrics_memory"`
}

// ThresholdsConfig holds the minimum per-dimension delta that counts as a
// material hardware change.
type ThresholdsConfig struct {
	CPUCores int `mapstructure:"cpu_cores"`
	MemoryGB int `mapstructure:"memory_gb"`
	DiskGB   int `mapstructure:"disk_gb"`
}

// DaemonConfig configures the change-detection daemon.
type DaemonConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
	PIDPath       string        `mapstructure:"pid_path"`
	StatusPath    string        `mapstructure:"status_path"`
}

// ArtifactsConfig locates the managed service configuration artifacts.
// These files are owned by the deployment's install scripts; the optimizer
// only rewrites known tuning keys inside them.
type ArtifactsConfig struct {
	N8NEnv      string `mapstructure:"n8n_env"`
	ComposeFile string `mapstructure:"compose_file"`
	NginxConf   string `mapstructure:"nginx_conf"`
	RedisConf   string `mapstructure:"redis_conf"`
	NetdataConf string `mapstructure:"netdata_conf"`
}

// NotifyConfig configures the email notifier. An empty host, from, or to
// list means notification is not configured and the notifier no-ops.
type NotifyConfig struct {
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	From         string        `mapstructure:"from"`
	To           []string      `mapstructure:"to"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	CooldownPath string        `mapstructure:"cooldown_path"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config represents the full application configuration.
type Config struct {
	Ratios     RatiosConfig     `mapstructure:"ratios"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Daemon     DaemonConfig     `mapstructure:"daemon"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	SpecPath   string           `mapstructure:"spec_path"`
	BackupDir  string           `mapstructure:"backup_dir"`
	DiskRoot   string           `mapstructure:"disk_root"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/hwtune/config.yaml
//   - $HOME/.config/hwtune/config.yaml
//
// Environment variables are prefixed with HWTUNE_ (e.g. HWTUNE_SPEC_PATH).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "hwtune"))
	}
	homeDir, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "hwtune"))
	}

	v.SetEnvPrefix("HWTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile loads configuration from an explicit file path. Unlike Load, a
// missing or unreadable file is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("HWTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every default on the given viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ratios.execution_process", DefaultExecutionProcessRatio)
	v.SetDefault("ratios.memory", DefaultMemoryRatio)
	v.SetDefault("ratios.docker_memory", DefaultDockerMemoryRatio)
	v.SetDefault("ratios.docker_cpu", DefaultDockerCPURatio)
	v.SetDefault("ratios.worker_process", DefaultWorkerProcessRatio)
	v.SetDefault("ratios.worker_connections_per_gb", DefaultWorkerConnectionsPerGB)
	v.SetDefault("ratios.cache_memory", DefaultCacheMemoryRatio)
	v.SetDefault("ratios.metrics_memory", DefaultMetricsMemoryRatio)

	v.SetDefault("thresholds.cpu_cores", DefaultCPUCoresThreshold)
	v.SetDefault("thresholds.memory_gb", DefaultMemoryGBThreshold)
	v.SetDefault("thresholds.disk_gb", DefaultDiskGBThreshold)

	v.SetDefault("daemon.check_interval", DefaultCheckInterval)
	v.SetDefault("daemon.settle_delay", DefaultSettleDelay)
	v.SetDefault("daemon.pid_path", DefaultPIDPath())
	v.SetDefault("daemon.status_path", DefaultStatusPath())

	v.SetDefault("artifacts.n8n_env", DefaultN8NEnvPath)
	v.SetDefault("artifacts.compose_file", DefaultComposePath)
	v.SetDefault("artifacts.nginx_conf", DefaultNginxConfPath)
	v.SetDefault("artifacts.redis_conf", DefaultRedisConfPath)
	v.SetDefault("artifacts.netdata_conf", DefaultNetdataConfPath)

	v.SetDefault("notify.smtp_port", DefaultSMTPPort)
	v.SetDefault("notify.cooldown", DefaultNotifyCooldown)
	v.SetDefault("notify.cooldown_path", DefaultCooldownPath())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"daemon":   "info",
		"hardware": "info",
		"writer":   "info",
		"backup":   "info",
		"notify":   "info",
	})

	v.SetDefault("spec_path", DefaultSpecPath())
	v.SetDefault("backup_dir", DefaultBackupDir())
	v.SetDefault("disk_root", "/")
}

// Validate checks that configured ratios and thresholds are usable.
func (c *Config) Validate() error {
	fractions := map[string]float64{
		"ratios.execution_process": c.Ratios.ExecutionProcess,
		"ratios.memory":            c.Ratios.Memory,
		"ratios.docker_memory":     c.Ratios.DockerMemory,
		"ratios.cache_memory":      c.Ratios.CacheMemory,
		"ratios.metrics_memory":    c.Ratios.MetricsMemory,
	}
	for name, val := range fractions {
		if val <= 0 || val > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %g", name, val)
		}
	}

	multipliers := map[string]float64{
		"ratios.docker_cpu":     c.Ratios.DockerCPU,
		"ratios.worker_process": c.Ratios.WorkerProcess,
	}
	for name, val := range multipliers {
		if val <= 0 || val > 4 {
			return fmt.Errorf("%s must be in (0, 4], got %g", name, val)
		}
	}

	if c.Ratios.WorkerConnectionsPerGB < 1 {
		return fmt.Errorf("ratios.worker_connections_per_gb must be >= 1, got %d", c.Ratios.WorkerConnectionsPerGB)
	}

	if c.Thresholds.CPUCores < 1 || c.Thresholds.MemoryGB < 1 || c.Thresholds.DiskGB < 1 {
		return errors.New("thresholds must all be >= 1")
	}

	if c.Daemon.CheckInterval < time.Second {
		return fmt.Errorf("daemon.check_interval must be >= 1s, got %s", c.Daemon.CheckInterval)
	}

	return nil
}

// StateDir returns $XDG_STATE_HOME/hwtune/ for spec, cooldown, pid, status,
// and log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "hwtune")
}

// DataDir returns $XDG_DATA_HOME/hwtune/ for configuration backups.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "hwtune")
}

// DefaultSpecPath returns the default persisted hardware spec path.
func DefaultSpecPath() string {
	return filepath.Join(StateDir(), "hardware_spec.json")
}

// DefaultCooldownPath returns the default notification cooldown file path.
func DefaultCooldownPath() string {
	return filepath.Join(StateDir(), "notify_cooldown")
}

// DefaultPIDPath returns the default daemon PID file path.
func DefaultPIDPath() string {
	return filepath.Join(StateDir(), "hwtuned.pid")
}

// DefaultStatusPath returns the default daemon status file path.
func DefaultStatusPath() string {
	return filepath.Join(StateDir(), "hwtuned.status")
}

// DefaultBackupDir returns the default root directory for configuration backups.
func DefaultBackupDir() string {
	return filepath.Join(DataDir(), "backups")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "hwtune.log")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}
