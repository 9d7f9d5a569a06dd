// Package config provides configuration management for the hwtune optimizer.
package config

import "time"

// Default sizing ratios applied against detected hardware.
const (
	// DefaultExecutionProcessRatio scales CPU cores into n8n execution processes.
	DefaultExecutionProcessRatio = 0.75

	// DefaultMemoryRatio scales total memory into the n8n heap limit.
	DefaultMemoryRatio = 0.75

	// DefaultDockerMemoryRatio scales total memory into the container memory limit.
	DefaultDockerMemoryRatio = 0.75

	// DefaultDockerCPURatio scales CPU cores into the container CPU limit.
	DefaultDockerCPURatio = 0.5

	// DefaultWorkerProcessRatio scales CPU cores into nginx worker processes.
	DefaultWorkerProcessRatio = 1.0

	// DefaultWorkerConnectionsPerGB sizes nginx worker connections per GB of memory.
	DefaultWorkerConnectionsPerGB = 256

	// DefaultCacheMemoryRatio scales total memory into the redis maxmemory budget.
	DefaultCacheMemoryRatio = 0.15

	// DefaultMetricsMemoryRatio scales total memory into the netdata memory budget.
	DefaultMetricsMemoryRatio = 0.02
)

// Default materiality thresholds. A detected delta below the threshold for
// its dimension is treated as noise and does not trigger re-optimization.
// Disk gets the widest band since free space moves with normal usage.
const (
	DefaultCPUCoresThreshold = 1
	DefaultMemoryGBThreshold = 1
	DefaultDiskGBThreshold   = 10
)

// Default daemon timing.
const (
	// DefaultCheckInterval is how often the daemon re-checks hardware.
	DefaultCheckInterval = time.Hour

	// DefaultSettleDelay is how long the daemon waits after detecting a
	// change before optimizing, so transient blips (e.g. live migration)
	// do not trigger a rewrite.
	DefaultSettleDelay = 30 * time.Second
)

// Default notification settings.
const (
	DefaultSMTPPort       = 587
	DefaultNotifyCooldown = 30 * time.Minute
)

// Default managed artifact locations for a standard n8n server install.
const (
	DefaultN8NEnvPath      = "/opt/n8n/.env"
	DefaultComposePath     = "/opt/n8n/docker-compose.yml"
	DefaultNginxConfPath   = "/etc/nginx/nginx.conf"
	DefaultRedisConfPath   = "/etc/redis/redis.conf"
	DefaultNetdataConfPath = "/etc/netdata/netdata.conf"
)
