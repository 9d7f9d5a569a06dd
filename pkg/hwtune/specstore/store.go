// Package specstore persists the last-known hardware spec so changes can be
// detected across runs and reboots. Exactly one prior generation is kept as a
// ".backup" sibling, overwritten on every save.
package specstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
)

// Store reads and writes the persisted hardware spec.
type Store struct {
	path string
	log  *logging.Logger
}

// New creates a Store for the given spec file path.
func New(path string) *Store {
	return &Store{path: path, log: logging.Get("specstore")}
}

// Path returns the spec file location.
func (s *Store) Path() string { return s.path }

// BackupPath returns the prior-generation backup location.
func (s *Store) BackupPath() string { return s.path + ".backup" }

// Load returns the persisted spec. A missing, corrupt, or schema-invalid
// file yields a zero spec and false, never an error: the change detector
// always has something to diff against, and a zero spec correctly reads as
// "no baseline yet" on first run.
func (s *Store) Load() (hardware.Spec, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("spec file unreadable, treating as no baseline", "path", s.path, "error", err)
		}
		return hardware.Spec{}, false
	}

	var spec hardware.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		s.log.Warn("spec file corrupt, treating as no baseline", "path", s.path, "error", err)
		return hardware.Spec{}, false
	}

	if !valid(spec) {
		s.log.Warn("spec file fails schema validation, treating as no baseline", "path", s.path)
		return hardware.Spec{}, false
	}

	return spec, true
}

// Save persists a new spec, first copying the existing file to the backup
// sibling. The write itself is atomic.
func (s *Store) Save(spec hardware.Spec) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating spec directory: %w", err)
	}

	if current, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.BackupPath(), current, 0o644); err != nil {
			return fmt.Errorf("writing spec backup: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading current spec: %w", err)
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling spec: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing spec: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming spec: %w", err)
	}

	s.log.Info("hardware spec saved",
		"cpu_cores", spec.CPUCores, "memory_gb", spec.MemoryGB, "disk_gb", spec.DiskGB)
	return nil
}

// valid checks the persisted record against the detection bounds. Anything a
// working detector could not have produced is treated as corrupt.
func valid(spec hardware.Spec) bool {
	return spec.CPUCores >= hardware.MinCPUCores &&
		spec.MemoryGB >= hardware.MinMemoryGB &&
		spec.DiskGB >= hardware.MinDiskGB &&
		!spec.Timestamp.IsZero()
}
