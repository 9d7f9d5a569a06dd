package daemon

import (
	"encoding/json"
	"os"
	"time"
)

// StatusFile is the daemon's externally readable status, rewritten on every
// state transition. The status CLI command reads it alongside the PID file.
type StatusFile struct {
	State        string    `json:"state"`
	PID          int       `json:"pid,omitempty"`
	LastCheck    time.Time `json:"last_check,omitzero"`
	LastChange   time.Time `json:"last_change,omitzero"`
	LastBackupID string    `json:"last_backup_id,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WriteStatus writes a status file atomically.
func WriteStatus(path string, status *StatusFile) error {
	status.PID = os.Getpid()
	status.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// ReadStatus reads a status file.
func ReadStatus(path string) (*StatusFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var status StatusFile
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RemoveStatus removes the status file.
func RemoveStatus(path string) error {
	return os.Remove(path)
}
