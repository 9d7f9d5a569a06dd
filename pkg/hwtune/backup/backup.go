// Package backup snapshots configuration artifacts before the writer mutates
// them and restores them on rollback. Each optimization run gets one
// timestamped directory under the backup root with a manifest listing
// original-to-backup path pairs. Manifests are never mutated after creation.
package backup

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
)

// ErrNotFound is returned when no manifest exists for a backup ID.
var ErrNotFound = errors.New("backup not found")

// manifestFilename is the manifest file inside each backup directory.
const manifestFilename = "manifest.json"

// Entry maps one artifact to its backup copy.
type Entry struct {
	ArtifactPath string `json:"artifact_path"`
	BackupPath   string `json:"backup_path"`
}

// Manifest records one optimization run's snapshot. Its BackupID is the
// handle other components reference, e.g. in notifications.
type Manifest struct {
	BackupID  string    `json:"backup_id"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Manager creates and restores configuration snapshots.
type Manager struct {
	root string
	mu   sync.Mutex
	log  *logging.Logger
}

// NewManager creates a Manager rooted at dir, creating the directory if
// needed.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("backup root cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup root: %w", err)
	}
	return &Manager{root: dir, log: logging.Get("backup")}, nil
}

// Snapshot copies every given artifact into a fresh timestamped directory
// and writes the manifest. It fails if any artifact cannot be copied; a
// partial snapshot must not be used as a rollback source.
func (m *Manager) Snapshot(paths []string) (*Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := generateID()
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	manifest := &Manifest{
		BackupID:  id,
		CreatedAt: time.Now().UTC(),
	}

	for _, src := range paths {
		dst := filepath.Join(dir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("backing up %s: %w", src, err)
		}
		manifest.Entries = append(manifest.Entries, Entry{
			ArtifactPath: src,
			BackupPath:   dst,
		})
	}

	if err := m.writeManifest(dir, manifest); err != nil {
		return nil, err
	}

	m.log.Info("configuration snapshot created", "backup_id", id, "artifacts", len(paths))
	return manifest, nil
}

// Rollback copies every backup path back over its original artifact.
// Every entry is attempted even after a failure; all failures are collected
// and returned together. Leaving some services on new config and some on old
// silently is worse than a noisy but complete attempt.
func (m *Manager) Rollback(manifest *Manifest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	restored := 0
	for _, entry := range manifest.Entries {
		if err := copyFile(entry.BackupPath, entry.ArtifactPath); err != nil {
			errs = append(errs, fmt.Errorf("restoring %s: %w", entry.ArtifactPath, err))
			continue
		}
		restored++
	}

	m.log.Info("rollback finished",
		"backup_id", manifest.BackupID, "restored", restored, "failed", len(errs))

	if len(errs) > 0 {
		return fmt.Errorf("rollback of %s incomplete (%d/%d restored): %w",
			manifest.BackupID, restored, len(manifest.Entries), errors.Join(errs...))
	}
	return nil
}

// Load reads the manifest for a backup ID.
func (m *Manager) Load(id string) (*Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(m.root, id, manifestFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading manifest for %s: %w", id, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", id, err)
	}
	return &manifest, nil
}

// List returns all recorded manifests, newest first. Directories without a
// readable manifest are skipped.
func (m *Manager) List() ([]Manifest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dirs, err := os.ReadDir(m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, fmt.Errorf("reading backup root: %w", err)
	}

	manifests := []Manifest{}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.root, d.Name(), manifestFilename))
		if err != nil {
			continue
		}
		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			continue
		}
		manifests = append(manifests, manifest)
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
	})
	return manifests, nil
}

// writeManifest writes the manifest atomically into the backup directory.
func (m *Manager) writeManifest(dir string, manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	path := filepath.Join(dir, manifestFilename)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}

// copyFile copies src to dst preserving the source file mode.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// generateID creates a timestamp-derived ID like "conf-20240615T103000-abc123".
func generateID() string {
	ts := time.Now().UTC().Format("20060102T150405")

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// Fallback to nanoseconds if crypto/rand fails.
		return fmt.Sprintf("conf-%s-%06d", ts, time.Now().Nanosecond()%1000000)
	}
	return fmt.Sprintf("conf-%s-%s", ts, hex.EncodeToString(suffix))
}
