// Package hardware detects host CPU, memory, and disk capacity for the
// optimizer. Detection never fails: every value is clamped into a sane range,
// and a failed or implausible OS query degrades to the nearest bound instead
// of surfacing an error.
package hardware

import (
	"math"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
)

// Detection bounds. Values outside these ranges are treated as detector
// failures and clamped.
const (
	MinCPUCores = 1
	MaxCPUCores = 64

	MinMemoryGB = 1
	MaxMemoryGB = 256

	MinDiskGB = 10
	MaxDiskGB = 10240
)

const bytesPerGB = 1024 * 1024 * 1024

// Spec is an immutable snapshot of host capacity. A new Spec is created on
// every detection cycle; the persisted copy is the baseline for change
// detection.
type Spec struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUCores      int       `json:"cpu_cores"`
	MemoryGB      int       `json:"memory_gb"`
	DiskGB        int       `json:"disk_gb"`
	Hostname      string    `json:"hostname"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
}

// IsZero reports whether the spec carries no detected values. A zero spec is
// what the store returns when no baseline exists yet.
func (s Spec) IsZero() bool {
	return s.CPUCores == 0 && s.MemoryGB == 0 && s.DiskGB == 0
}

// Inspector reads host capacity. DiskGB is measured as free space on the
// configured mount (the volume the managed services live on).
type Inspector struct {
	diskRoot string
	log      *logging.Logger
}

// NewInspector creates an Inspector measuring disk space on the given mount.
// An empty diskRoot defaults to "/".
func NewInspector(diskRoot string) *Inspector {
	if diskRoot == "" {
		diskRoot = "/"
	}
	return &Inspector{
		diskRoot: diskRoot,
		log:      logging.Get("hardware"),
	}
}

// DetectCPUCores returns the logical core count clamped to [1, 64].
func (i *Inspector) DetectCPUCores() int {
	count, err := cpu.Counts(true)
	if err != nil || count < 1 {
		// gopsutil failed; runtime.NumCPU never does.
		i.log.Warn("cpu detection degraded", "error", err, "fallback", runtime.NumCPU())
		count = runtime.NumCPU()
	}
	return clampInt(count, MinCPUCores, MaxCPUCores)
}

// DetectMemoryGB returns total physical memory in GB clamped to [1, 256].
func (i *Inspector) DetectMemoryGB() int {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil || vm.Total == 0 {
		i.log.Warn("memory detection degraded", "error", err)
		return MinMemoryGB
	}
	gb := int(math.Round(float64(vm.Total) / bytesPerGB))
	return clampInt(gb, MinMemoryGB, MaxMemoryGB)
}

// DetectDiskGB returns free disk space in GB on the inspector's mount,
// clamped to [10, 10240].
func (i *Inspector) DetectDiskGB() int {
	usage, err := disk.Usage(i.diskRoot)
	if err != nil || usage == nil {
		i.log.Warn("disk detection degraded", "mount", i.diskRoot, "error", err)
		return MinDiskGB
	}
	gb := int(usage.Free / bytesPerGB)
	return clampInt(gb, MinDiskGB, MaxDiskGB)
}

// Specs composes the three detectors plus host identity into one Spec.
// It always succeeds.
func (i *Inspector) Specs() Spec {
	spec := Spec{
		Timestamp: time.Now().UTC(),
		CPUCores:  i.DetectCPUCores(),
		MemoryGB:  i.DetectMemoryGB(),
		DiskGB:    i.DetectDiskGB(),
	}

	if info, err := host.Info(); err == nil && info != nil {
		spec.Hostname = info.Hostname
		spec.UptimeSeconds = info.Uptime
	} else {
		i.log.Warn("host info degraded", "error", err)
		spec.Hostname = "unknown"
	}

	return spec
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
