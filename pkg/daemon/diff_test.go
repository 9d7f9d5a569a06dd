package daemon

import (
	"strings"
	"testing"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
)

func defaultThresholds() Thresholds {
	return Thresholds{CPUCores: 1, MemoryGB: 1, DiskGB: 10}
}

func TestDiff_Identical(t *testing.T) {
	s := hardware.Spec{CPUCores: 4, MemoryGB: 8, DiskGB: 100}

	c := Diff(s, s, defaultThresholds())
	if c.Material() {
		t.Errorf("identical specs reported material change: %s", c.Summary())
	}
	if got, want := c.Summary(), "no material change"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestDiff_CPUDoubled(t *testing.T) {
	old := hardware.Spec{CPUCores: 2, MemoryGB: 8, DiskGB: 100}
	cur := hardware.Spec{CPUCores: 4, MemoryGB: 8, DiskGB: 100}

	c := Diff(old, cur, defaultThresholds())
	if !c.Material() {
		t.Fatal("CPU 2 -> 4 not reported as material")
	}
	if len(c.Dimensions) != 1 {
		t.Fatalf("Dimensions = %d, want 1", len(c.Dimensions))
	}
	summary := c.Summary()
	if !strings.Contains(summary, "CPU cores: 2 -> 4 (+2)") {
		t.Errorf("Summary() = %q, want CPU line with before/after and delta", summary)
	}
	if strings.Contains(summary, "Memory") || strings.Contains(summary, "Disk") {
		t.Errorf("Summary() names unchanged dimensions: %q", summary)
	}
}

func TestDiff_BelowThreshold(t *testing.T) {
	old := hardware.Spec{CPUCores: 4, MemoryGB: 8, DiskGB: 100}
	cur := hardware.Spec{CPUCores: 4, MemoryGB: 8, DiskGB: 105}

	// Disk threshold is 10 GB; a 5 GB drift is noise.
	if c := Diff(old, cur, defaultThresholds()); c.Material() {
		t.Errorf("5 GB disk drift reported as material: %s", c.Summary())
	}
}

func TestDiff_DowngradeIsMaterial(t *testing.T) {
	old := hardware.Spec{CPUCores: 8, MemoryGB: 32, DiskGB: 500}
	cur := hardware.Spec{CPUCores: 4, MemoryGB: 16, DiskGB: 500}

	c := Diff(old, cur, defaultThresholds())
	if !c.Material() {
		t.Fatal("downgrade not reported as material")
	}
	summary := c.Summary()
	for _, want := range []string{"CPU cores: 8 -> 4 (-4)", "Memory (GB): 32 -> 16 (-16)"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() = %q, missing %q", summary, want)
		}
	}
}

func TestDiff_NoBaseline(t *testing.T) {
	// A zero stored spec reads as a change in every dimension.
	cur := hardware.Spec{CPUCores: 4, MemoryGB: 8, DiskGB: 100}

	c := Diff(hardware.Spec{}, cur, defaultThresholds())
	if !c.Material() {
		t.Fatal("missing baseline not reported as material")
	}
	if len(c.Dimensions) != 3 {
		t.Errorf("Dimensions = %d, want 3", len(c.Dimensions))
	}
}
