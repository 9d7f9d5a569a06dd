// Package output renders hardware specs and derived parameter sets for the
// terminal, either styled for humans or as JSON for scripts.
package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
)

// JSON renders any value as indented JSON.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(data), nil
}

// RenderSpec renders a hardware spec as a styled summary box.
func RenderSpec(spec hardware.Spec) string {
	rows := []struct {
		label string
		value string
	}{
		{"Hostname", spec.Hostname},
		{"CPU cores", strconv.Itoa(spec.CPUCores)},
		{"Memory", fmt.Sprintf("%d GB", spec.MemoryGB)},
		{"Free disk", fmt.Sprintf("%d GB", spec.DiskGB)},
		{"Uptime", formatUptime(spec.UptimeSeconds)},
		{"Detected", spec.Timestamp.Format(time.RFC3339)},
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, TitleStyle.Render("Hardware"))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s %s",
			LabelStyle.Render(fmt.Sprintf("%-10s", row.label+":")),
			ValueStyle.Render(row.value)))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// RenderParams renders a parameter set grouped by managed service.
func RenderParams(set params.Set) string {
	var b strings.Builder

	section(&b, "n8n", [][2]string{
		{"execution processes", strconv.Itoa(set.N8N.ProcessCount)},
		{"memory limit", humanize.IBytes(uint64(set.N8N.MemoryLimitMB) * 1024 * 1024)},
		{"execution timeout", fmt.Sprintf("%ds", set.N8N.ExecutionTimeoutSec)},
		{"webhook timeout", fmt.Sprintf("%ds", set.N8N.WebhookTimeoutSec)},
	})
	section(&b, "docker", [][2]string{
		{"memory limit", fmt.Sprintf("%dg", set.Docker.MemoryLimitGB)},
		{"cpu limit", strconv.FormatFloat(set.Docker.CPULimit, 'f', 1, 64)},
		{"shm size", fmt.Sprintf("%dm", set.Docker.ShmSizeMB)},
	})
	section(&b, "nginx", [][2]string{
		{"worker processes", strconv.Itoa(set.Nginx.WorkerProcesses)},
		{"worker connections", strconv.Itoa(set.Nginx.WorkerConnections)},
		{"client max body", fmt.Sprintf("%dm", set.Nginx.ClientMaxBodyMB)},
	})
	section(&b, "redis", [][2]string{
		{"maxmemory", fmt.Sprintf("%dmb", set.Redis.MaxMemoryMB)},
		{"eviction policy", set.Redis.EvictionPolicy},
	})
	section(&b, "netdata", [][2]string{
		{"update interval", fmt.Sprintf("%ds", set.Netdata.UpdateIntervalSec)},
		{"memory limit", fmt.Sprintf("%dmb", set.Netdata.MemoryLimitMB)},
	})

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title string, rows [][2]string) {
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	for _, row := range rows {
		fmt.Fprintf(b, "  %s %s\n",
			LabelStyle.Render(fmt.Sprintf("%-20s", row[0]+":")),
			ValueStyle.Render(row[1]))
	}
	b.WriteString("\n")
}

func formatUptime(seconds uint64) string {
	if seconds == 0 {
		return "unknown"
	}
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
