package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	want := &StatusFile{
		State:        string(StateOptimizing),
		LastCheck:    time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		LastBackupID: "conf-20260820T103000-abc123",
	}

	require.NoError(t, WriteStatus(path, want))

	got, err := ReadStatus(path)
	require.NoError(t, err)
	assert.Equal(t, want.State, got.State)
	assert.Equal(t, want.LastCheck, got.LastCheck)
	assert.Equal(t, want.LastBackupID, got.LastBackupID)
	assert.Equal(t, os.Getpid(), got.PID)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestWriteStatus_AtomicNoTempLeftover(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")

	require.NoError(t, WriteStatus(path, &StatusFile{State: string(StateIdle)}))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestReadStatus_Missing(t *testing.T) {
	_, err := ReadStatus(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestRemoveStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	require.NoError(t, WriteStatus(path, &StatusFile{State: string(StateIdle)}))
	require.NoError(t, RemoveStatus(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSetState_WritesStatusFile(t *testing.T) {
	h := newHarness(hostSpec(4, 8, 100))
	h.detector.opts.StatusPath = filepath.Join(t.TempDir(), "status.json")

	h.detector.setState(StateChecking)

	got, err := ReadStatus(h.detector.opts.StatusPath)
	require.NoError(t, err)
	assert.Equal(t, string(StateChecking), got.State)
}
