package main

import (
	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/daemon"
	"github.com/Mola-TT/hwtune/pkg/hwtune/backup"
)

var forceOptimizeCmd = &cobra.Command{
	Use:   "force-optimize",
	Short: "Apply tuning parameters unconditionally",
	Long: `Skip change detection and run the optimize step: snapshot the managed
configuration artifacts, recompute parameters for the current hardware,
apply them, and persist the new baseline.`,
	Args: cobra.NoArgs,
	RunE: runForceOptimize,
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <backup-id>",
	Short: "Restore a configuration snapshot",
	Long: `Restore every artifact recorded in the given backup's manifest.
All entries are attempted; failures are aggregated and reported together.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func init() {
	forceOptimizeCmd.Flags().Bool("no-notify", false, "skip the completion notification")
	rootCmd.AddCommand(forceOptimizeCmd)
	rootCmd.AddCommand(rollbackCmd)
}

func runForceOptimize(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	noNotify, _ := cmd.Flags().GetBool("no-notify")

	detector, err := daemon.FromConfig(cfg)
	if err != nil {
		return err
	}

	backupID, err := detector.ForceOptimize(!noNotify)
	if err != nil {
		if backupID != "" {
			printError("optimize failed; restore with: hwtune rollback %s", backupID)
		}
		return err
	}

	printInfo("Optimization applied (backup: %s)", backupID)
	return nil
}

func runRollback(_ *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	mgr, err := backup.NewManager(cfg.BackupDir)
	if err != nil {
		return err
	}

	manifest, err := mgr.Load(args[0])
	if err != nil {
		return err
	}

	if err := mgr.Rollback(manifest); err != nil {
		return err
	}
	printInfo("Restored %d artifacts from %s", len(manifest.Entries), manifest.BackupID)
	return nil
}
