package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
)

func TestJSON(t *testing.T) {
	spec := hardware.Spec{
		Timestamp: time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		CPUCores:  8,
		MemoryGB:  32,
		DiskGB:    500,
		Hostname:  "n8n-prod-01",
	}

	out, err := JSON(spec)
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("JSON() produced invalid JSON: %v", err)
	}
	if decoded["hostname"] != "n8n-prod-01" {
		t.Errorf("hostname = %v, want n8n-prod-01", decoded["hostname"])
	}
	if decoded["cpu_cores"] != float64(8) {
		t.Errorf("cpu_cores = %v, want 8", decoded["cpu_cores"])
	}
}

func TestRenderSpec(t *testing.T) {
	spec := hardware.Spec{
		Timestamp:     time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		CPUCores:      8,
		MemoryGB:      32,
		DiskGB:        500,
		Hostname:      "n8n-prod-01",
		UptimeSeconds: 90061, // 1d 1h 1m
	}

	out := RenderSpec(spec)
	for _, want := range []string{"Hardware", "n8n-prod-01", "32 GB", "500 GB", "1d 1h 1m"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSpec() missing %q:\n%s", want, out)
		}
	}
}

func TestRenderParams(t *testing.T) {
	set := params.Set{
		N8N:     params.N8NParams{ProcessCount: 12, MemoryLimitMB: 49152, ExecutionTimeoutSec: 1200, WebhookTimeoutSec: 900},
		Docker:  params.DockerParams{MemoryLimitGB: 48, CPULimit: 8.0, ShmSizeMB: 3072},
		Nginx:   params.NginxParams{WorkerProcesses: 16, WorkerConnections: 16384, ClientMaxBodyMB: 512},
		Redis:   params.RedisParams{MaxMemoryMB: 9830, EvictionPolicy: "allkeys-lru"},
		Netdata: params.NetdataParams{UpdateIntervalSec: 1, MemoryLimitMB: 1310},
	}

	out := RenderParams(set)
	for _, want := range []string{
		"n8n", "docker", "nginx", "redis", "netdata",
		"12", "48 GiB", "8.0", "16384", "9830mb", "allkeys-lru",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderParams() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds uint64
		want    string
	}{
		{0, "unknown"},
		{59, "0m"},
		{60, "1m"},
		{3660, "1h 1m"},
		{90061, "1d 1h 1m"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
