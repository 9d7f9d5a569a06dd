package daemon

import (
	"fmt"
	"strings"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
)

// Thresholds are the minimum per-dimension deltas that count as a material
// change. Small fluctuations (disk usage noise) must not trigger
// re-optimization; only discrete hardware changes should.
type Thresholds struct {
	CPUCores int
	MemoryGB int
	DiskGB   int
}

// Dimension is one changed hardware dimension with before/after values.
type Dimension struct {
	Name   string
	Before int
	After  int
	Delta  int
}

// Change is the result of diffing a detected spec against the stored
// baseline. It carries only the dimensions whose delta met the threshold.
type Change struct {
	Dimensions []Dimension
}

// Diff compares the stored spec against the current one. A zero stored spec
// (no baseline) reads as a change in every dimension, which is correct on
// first run.
func Diff(stored, current hardware.Spec, t Thresholds) Change {
	var c Change
	c.add("CPU cores", stored.CPUCores, current.CPUCores, t.CPUCores)
	c.add("Memory (GB)", stored.MemoryGB, current.MemoryGB, t.MemoryGB)
	c.add("Disk (GB)", stored.DiskGB, current.DiskGB, t.DiskGB)
	return c
}

func (c *Change) add(name string, before, after, threshold int) {
	delta := after - before
	if abs(delta) < threshold {
		return
	}
	c.Dimensions = append(c.Dimensions, Dimension{
		Name:   name,
		Before: before,
		After:  after,
		Delta:  delta,
	})
}

// Material reports whether any dimension changed beyond its threshold.
func (c Change) Material() bool {
	return len(c.Dimensions) > 0
}

// Summary renders a human-readable multi-line description naming each
// changed dimension with before/after values and signed delta.
func (c Change) Summary() string {
	if !c.Material() {
		return "no material change"
	}
	lines := make([]string, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		lines = append(lines, fmt.Sprintf("%s: %d -> %d (%+d)", d.Name, d.Before, d.After, d.Delta))
	}
	return strings.Join(lines, "\n")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
