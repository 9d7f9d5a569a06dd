package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// UnitName is the systemd unit managing the daemon.
const UnitName = "hwtuned.service"

// unitPath is where InstallUnit writes the unit file.
const unitPath = "/etc/systemd/system/" + UnitName

// unitTemplate is the systemd unit. Process lifecycle (restart on failure,
// at-most-one instance) is the supervisor's responsibility.
const unitTemplate = `[Unit]
Description=Hardware-adaptive configuration optimizer
After=network.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=30

[Install]
WantedBy=multi-user.target
`

// InstallUnit writes the systemd unit pointing at the given daemon binary,
// reloads systemd, and enables the unit. Installing an identical unit again
// is a no-op apart from the reload.
func InstallUnit(binaryPath string) error {
	if binaryPath == "" {
		var err error
		binaryPath, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolving daemon binary: %w", err)
		}
	}

	unit := fmt.Sprintf(unitTemplate, binaryPath)
	if err := os.WriteFile(unitPath, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", UnitName)
}

// StartUnit starts the daemon via the supervisor. Starting an already
// running unit is a no-op for systemd, keeping the operation idempotent.
func StartUnit() error {
	return systemctl("start", UnitName)
}

// StopUnit stops the daemon via the supervisor.
func StopUnit() error {
	return systemctl("stop", UnitName)
}

// UnitState returns the supervisor's view of the unit: "active", "inactive",
// "failed", or "not-installed".
func UnitState() string {
	out, err := exec.Command("systemctl", "is-active", UnitName).Output()
	state := strings.TrimSpace(string(out))
	if state == "" {
		if err != nil {
			return "not-installed"
		}
		return "unknown"
	}
	return state
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
