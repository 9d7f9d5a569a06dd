package main

import (
	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/daemon"
	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/output"
	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
)

var showSpecsCmd = &cobra.Command{
	Use:   "show-specs",
	Short: "Print the current hardware spec",
	Long:  `Detect and print the host's CPU, memory, and disk capacity.`,
	Args:  cobra.NoArgs,
	RunE:  runShowSpecs,
}

var showParamsCmd = &cobra.Command{
	Use:   "show-params",
	Short: "Print the parameters derived for the current hardware",
	Long: `Detect hardware and print the per-service tuning parameters that an
optimization run would apply, without touching any configuration.`,
	Args: cobra.NoArgs,
	RunE: runShowParams,
}

func init() {
	rootCmd.AddCommand(showSpecsCmd)
	rootCmd.AddCommand(showParamsCmd)
}

func runShowSpecs(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	spec := hardware.NewInspector(cfg.DiskRoot).Specs()

	if jsonOut {
		s, err := output.JSON(spec)
		if err != nil {
			return err
		}
		printInfo("%s", s)
		return nil
	}
	printInfo("%s", output.RenderSpec(spec))
	return nil
}

func runShowParams(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	spec := hardware.NewInspector(cfg.DiskRoot).Specs()
	set := params.Calculate(spec, daemon.RatiosFromConfig(cfg.Ratios))

	if jsonOut {
		s, err := output.JSON(set)
		if err != nil {
			return err
		}
		printInfo("%s", s)
		return nil
	}
	printInfo("%s", output.RenderParams(set))
	return nil
}
