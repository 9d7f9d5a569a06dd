package main

import (
	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/daemon"
	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/specstore"
)

var checkOnceCmd = &cobra.Command{
	Use:   "check-once",
	Short: "Run one detection+diff cycle without looping",
	Long: `Detect current hardware and diff it against the stored baseline.
Exits 0 when no material change is found and 1 when a change is found,
so it can be used in scripted health checks. The configuration is not
modified either way.`,
	Args: cobra.NoArgs,
	RunE: runCheckOnce,
}

func init() {
	rootCmd.AddCommand(checkOnceCmd)
}

func runCheckOnce(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	current := hardware.NewInspector(cfg.DiskRoot).Specs()
	stored, hadBaseline := specstore.New(cfg.SpecPath).Load()

	change := daemon.Diff(stored, current, daemon.Thresholds{
		CPUCores: cfg.Thresholds.CPUCores,
		MemoryGB: cfg.Thresholds.MemoryGB,
		DiskGB:   cfg.Thresholds.DiskGB,
	})

	if !change.Material() {
		printInfo("No material change (cpu=%d, memory=%dGB, disk=%dGB)",
			current.CPUCores, current.MemoryGB, current.DiskGB)
		return nil
	}

	if !hadBaseline {
		printInfo("No stored baseline; current hardware counts as a change.")
	}
	printInfo("Material hardware change detected:\n%s", change.Summary())
	return &exitError{code: 1, msg: "material hardware change detected"}
}
