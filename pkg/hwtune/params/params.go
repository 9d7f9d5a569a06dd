// Package params derives per-service tuning parameters from detected
// hardware. Every calculator is a pure function of a hardware.Spec and the
// configured ratios; no global state is read or written.
package params

// Ratios are the externally configured sizing ratios. They are read-only
// inputs to calculation.
type Ratios struct {
	ExecutionProcess       float64
	Memory                 float64
	DockerMemory           float64
	DockerCPU              float64
	WorkerProcess          float64
	WorkerConnectionsPerGB int
	CacheMemory            float64
	MetricsMemory          float64
}

// N8NParams tunes the workflow-engine process.
type N8NParams struct {
	ProcessCount        int `json:"process_count"`
	MemoryLimitMB       int `json:"memory_limit_mb"`
	ExecutionTimeoutSec int `json:"execution_timeout_sec"`
	WebhookTimeoutSec   int `json:"webhook_timeout_sec"`
}

// DockerParams tunes the container runtime limits.
type DockerParams struct {
	// MemoryLimitGB is 0 on hosts under 2 GB: floor(1 x ratio) rounds down
	// to zero, which the compose writer renders as "0g" (no effective cap).
	MemoryLimitGB int     `json:"memory_limit_gb"`
	CPULimit      float64 `json:"cpu_limit"`
	ShmSizeMB     int     `json:"shm_size_mb"`
}

// NginxParams tunes the reverse proxy.
type NginxParams struct {
	WorkerProcesses   int `json:"worker_processes"`
	WorkerConnections int `json:"worker_connections"`
	ClientMaxBodyMB   int `json:"client_max_body_mb"`
}

// RedisParams tunes the cache.
type RedisParams struct {
	MaxMemoryMB    int    `json:"max_memory_mb"`
	EvictionPolicy string `json:"eviction_policy"`
}

// NetdataParams tunes the metrics agent.
type NetdataParams struct {
	UpdateIntervalSec int `json:"update_interval_sec"`
	MemoryLimitMB     int `json:"memory_limit_mb"`
}

// Set is the full parameter set for one optimization run.
type Set struct {
	N8N     N8NParams     `json:"n8n"`
	Docker  DockerParams  `json:"docker"`
	Nginx   NginxParams   `json:"nginx"`
	Redis   RedisParams   `json:"redis"`
	Netdata NetdataParams `json:"netdata"`
}
