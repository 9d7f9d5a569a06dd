package params

import (
	"math"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
)

// Sizing floors and constants.
const (
	// baseTimeoutSec is the base workflow execution timeout that capacity
	// tiers scale from.
	baseTimeoutSec = 300

	// minN8NMemoryMB is the smallest heap the workflow engine runs with.
	minN8NMemoryMB = 512

	// minDockerCPU is the smallest container CPU allocation.
	minDockerCPU = 0.5

	// minShmSizeMB is the floor for the container shared-memory segment.
	minShmSizeMB = 64

	// shmPerGBLimitMB sizes shm proportionally to the container memory limit.
	shmPerGBLimitMB = 64

	// minWorkerConnections / maxWorkerConnections bound nginx connections.
	minWorkerConnections = 256
	maxWorkerConnections = 16384

	// minClientBodyMB / maxClientBodyMB bound the proxy upload size.
	minClientBodyMB = 16
	maxClientBodyMB = 512

	// minCacheMemoryMB is the redis maxmemory floor regardless of host size.
	minCacheMemoryMB = 64

	// cacheEvictionPolicy is fixed; only the budget scales.
	cacheEvictionPolicy = "allkeys-lru"

	// minMetricsMemoryMB is the netdata memory floor.
	minMetricsMemoryMB = 32
)

// Calculate derives the full parameter set for the given hardware.
func Calculate(spec hardware.Spec, r Ratios) Set {
	return Set{
		N8N:     CalcN8N(spec, r),
		Docker:  CalcDocker(spec, r),
		Nginx:   CalcNginx(spec, r),
		Redis:   CalcRedis(spec, r),
		Netdata: CalcNetdata(spec, r),
	}
}

// CalcN8N sizes the workflow-engine process pool, heap, and timeouts.
// The webhook timeout is always strictly less than the execution timeout:
// a webhook response must time out before the orchestrating execution does.
func CalcN8N(spec hardware.Spec, r Ratios) N8NParams {
	cores, memGB := sanitize(spec)

	procs := int(float64(cores) * r.ExecutionProcess)
	procs = clamp(procs, 1, cores)

	memMB := int(float64(memGB) * 1024 * r.Memory)
	memMB = clamp(memMB, minN8NMemoryMB, memGB*1024)

	execTimeout := baseTimeoutSec * timeoutMultiplier(cores, memGB)
	webhookTimeout := execTimeout * 3 / 4
	if webhookTimeout >= execTimeout {
		webhookTimeout = execTimeout - 1
	}
	if webhookTimeout < 1 {
		webhookTimeout = 1
		execTimeout = 2
	}

	return N8NParams{
		ProcessCount:        procs,
		MemoryLimitMB:       memMB,
		ExecutionTimeoutSec: execTimeout,
		WebhookTimeoutSec:   webhookTimeout,
	}
}

// CalcDocker sizes container runtime limits. The memory limit rounds down in
// whole GB, so a 1 GB host yields 0 (no cap below 1g granularity).
func CalcDocker(spec hardware.Spec, r Ratios) DockerParams {
	cores, memGB := sanitize(spec)

	memLimit := int(float64(memGB) * r.DockerMemory)
	if memLimit > memGB {
		memLimit = memGB
	}

	cpuLimit := math.Round(float64(cores)*r.DockerCPU*10) / 10
	cpuLimit = math.Min(cpuLimit, float64(cores))
	if cpuLimit < minDockerCPU {
		cpuLimit = minDockerCPU
	}

	shm := memLimit * shmPerGBLimitMB
	if shm < minShmSizeMB {
		shm = minShmSizeMB
	}

	return DockerParams{
		MemoryLimitGB: memLimit,
		CPULimit:      cpuLimit,
		ShmSizeMB:     shm,
	}
}

// CalcNginx sizes the reverse proxy workers and connection limits.
func CalcNginx(spec hardware.Spec, r Ratios) NginxParams {
	cores, memGB := sanitize(spec)

	workers := int(math.Round(float64(cores) * r.WorkerProcess))
	workers = clamp(workers, 1, cores)

	conns := memGB * r.WorkerConnectionsPerGB
	conns = clamp(conns, minWorkerConnections, maxWorkerConnections)

	body := clamp(memGB*16, minClientBodyMB, maxClientBodyMB)

	return NginxParams{
		WorkerProcesses:   workers,
		WorkerConnections: conns,
		ClientMaxBodyMB:   body,
	}
}

// CalcRedis sizes the cache memory budget. The floor holds regardless of how
// small the host is; the eviction policy never changes.
func CalcRedis(spec hardware.Spec, r Ratios) RedisParams {
	_, memGB := sanitize(spec)

	maxMem := int(float64(memGB) * 1024 * r.CacheMemory)
	maxMem = clamp(maxMem, minCacheMemoryMB, memGB*1024)

	return RedisParams{
		MaxMemoryMB:    maxMem,
		EvictionPolicy: cacheEvictionPolicy,
	}
}

// CalcNetdata sizes the metrics agent. Low-end hosts get a slower update
// interval and a smaller memory cap; high-end hosts get the fastest interval.
func CalcNetdata(spec hardware.Spec, r Ratios) NetdataParams {
	cores, memGB := sanitize(spec)

	var interval int
	switch {
	case cores >= 8 && memGB >= 16:
		interval = 1
	case cores >= 4 && memGB >= 8:
		interval = 2
	default:
		interval = 3
	}

	memMB := int(float64(memGB) * 1024 * r.MetricsMemory)
	memMB = clamp(memMB, minMetricsMemoryMB, memGB*1024)

	return NetdataParams{
		UpdateIntervalSec: interval,
		MemoryLimitMB:     memMB,
	}
}

// timeoutMultiplier maps host capacity to a timeout scale factor.
func timeoutMultiplier(cores, memGB int) int {
	switch {
	case cores >= 8 && memGB >= 16:
		return 4
	case cores >= 4 && memGB >= 8:
		return 2
	default:
		return 1
	}
}

// sanitize lifts degenerate inputs to the detection minimums so a failed
// detector upstream can never produce zero-valued or negative parameters.
func sanitize(spec hardware.Spec) (cores, memGB int) {
	cores = spec.CPUCores
	if cores < 1 {
		cores = 1
	}
	memGB = spec.MemoryGB
	if memGB < 1 {
		memGB = 1
	}
	return cores, memGB
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
