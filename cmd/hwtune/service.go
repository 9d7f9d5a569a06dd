package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/daemon"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the supervisor unit",
	Long: `Manage the systemd unit that supervises the hwtuned daemon.
The supervisor owns process lifecycle; hwtune only installs, starts,
and stops the unit.`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and enable the systemd unit",
	Args:  cobra.NoArgs,
	RunE:  runServiceInstall,
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon via the supervisor",
	Args:  cobra.NoArgs,
	RunE:  runServiceStart,
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon via the supervisor",
	Args:  cobra.NoArgs,
	RunE:  runServiceStop,
}

func init() {
	serviceInstallCmd.Flags().String("binary", "", "path to the hwtuned binary (default: next to hwtune)")
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceStartCmd)
	serviceCmd.AddCommand(serviceStopCmd)
	rootCmd.AddCommand(serviceCmd)
}

func runServiceInstall(cmd *cobra.Command, _ []string) error {
	binary, _ := cmd.Flags().GetString("binary")
	if binary == "" {
		binary = siblingBinary("hwtuned")
	}

	if err := daemon.InstallUnit(binary); err != nil {
		return err
	}
	printInfo("Installed %s (ExecStart=%s)", daemon.UnitName, binary)
	return nil
}

func runServiceStart(_ *cobra.Command, _ []string) error {
	if err := daemon.StartUnit(); err != nil {
		return err
	}
	printInfo("Daemon started")
	return nil
}

func runServiceStop(_ *cobra.Command, _ []string) error {
	if err := daemon.StopUnit(); err != nil {
		return err
	}
	printInfo("Daemon stopped")
	return nil
}

// siblingBinary resolves a binary installed next to the current executable.
func siblingBinary(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}
