package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mola-TT/hwtune/pkg/daemon"
	"github.com/Mola-TT/hwtune/pkg/hwtune/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report daemon running/stopped/disabled",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the combined process and supervisor view.
type statusReport struct {
	Running      bool      `json:"running"`
	UnitState    string    `json:"unit_state"`
	State        string    `json:"state,omitempty"`
	LastCheck    time.Time `json:"last_check,omitzero"`
	LastChange   time.Time `json:"last_change,omitzero"`
	LastBackupID string    `json:"last_backup_id,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	report := statusReport{
		Running:   daemon.IsRunning(cfg.Daemon.PIDPath),
		UnitState: daemon.UnitState(),
	}

	if st, err := daemon.ReadStatus(cfg.Daemon.StatusPath); err == nil {
		report.State = st.State
		report.LastCheck = st.LastCheck
		report.LastChange = st.LastChange
		report.LastBackupID = st.LastBackupID
		report.LastError = st.LastError
	} else if !os.IsNotExist(err) {
		printError("status file unreadable: %v", err)
	}

	if jsonOut {
		s, err := output.JSON(report)
		if err != nil {
			return err
		}
		printInfo("%s", s)
		return nil
	}

	switch {
	case report.Running:
		printInfo("Daemon: running (state: %s)", orUnknown(report.State))
	case report.UnitState == "not-installed":
		printInfo("Daemon: disabled (unit not installed)")
	default:
		printInfo("Daemon: stopped (unit: %s)", report.UnitState)
	}
	if !report.LastCheck.IsZero() {
		printInfo("Last check: %s", report.LastCheck.Format(time.RFC3339))
	}
	if !report.LastChange.IsZero() {
		printInfo("Last change: %s", report.LastChange.Format(time.RFC3339))
	}
	if report.LastBackupID != "" {
		printInfo("Last backup: %s", report.LastBackupID)
	}
	if report.LastError != "" {
		printInfo("Last error: %s", report.LastError)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
