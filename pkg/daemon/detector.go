// Package daemon implements the change-detection daemon: a single-threaded
// polling loop that re-reads host hardware on a timer, diffs it against the
// stored baseline, and drives the optimize-and-notify flow when a material
// change is found. All sub-operations run synchronously in sequence within
// one iteration; a failure inside an iteration is logged and the loop
// returns to idle for the next scheduled check.
package daemon

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Mola-TT/hwtune/pkg/hwtune/backup"
	"github.com/Mola-TT/hwtune/pkg/hwtune/hardware"
	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
	"github.com/Mola-TT/hwtune/pkg/hwtune/notify"
	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
)

// State identifies where the detector is in its cycle.
type State string

// Detector states. The daemon loops IDLE -> CHECKING -> ... -> IDLE; there
// is no terminal state while it runs.
const (
	StateIdle               State = "IDLE"
	StateChecking           State = "CHECKING"
	StateChangeDetected     State = "CHANGE_DETECTED"
	StateNotifyingDetected  State = "NOTIFYING_DETECTED"
	StateDelaying           State = "DELAYING"
	StateOptimizing         State = "OPTIMIZING"
	StateNotifyingOptimized State = "NOTIFYING_OPTIMIZED"
)

// Inspector detects current hardware. Detection never fails.
type Inspector interface {
	Specs() hardware.Spec
}

// Store persists the hardware baseline across runs.
type Store interface {
	Load() (hardware.Spec, bool)
	Save(hardware.Spec) error
}

// Applier writes a parameter set to the managed artifacts.
type Applier interface {
	Apply(params.Set) error
	TouchedPaths() []string
}

// Snapshotter backs up artifacts before they are mutated.
type Snapshotter interface {
	Snapshot(paths []string) (*backup.Manifest, error)
}

// Notifier emits change and completion events.
type Notifier interface {
	Notify(notify.Event, map[string]string) (notify.Result, error)
}

// Options configures detector timing and thresholds.
type Options struct {
	// CheckInterval is the polling period for Run.
	CheckInterval time.Duration

	// SettleDelay is the wait between detecting a change and optimizing,
	// so transient blips (e.g. a live migration) do not trigger a rewrite.
	SettleDelay time.Duration

	// Thresholds gate change materiality.
	Thresholds Thresholds

	// Ratios are passed through to parameter calculation.
	Ratios params.Ratios

	// StatusPath, when set, receives a status file update on every state
	// transition.
	StatusPath string
}

// Detector is the daemon state machine.
type Detector struct {
	inspector Inspector
	store     Store
	writer    Applier
	backups   Snapshotter
	notifier  Notifier
	opts      Options
	log       *logging.Logger

	// sleep is swapped out in tests to avoid real settle delays.
	sleep func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	state        State
	lastCheck    time.Time
	lastChange   time.Time
	lastBackupID string
	lastError    string
}

// New assembles a Detector from its components.
func New(inspector Inspector, store Store, writer Applier, backups Snapshotter, notifier Notifier, opts Options) *Detector {
	return &Detector{
		inspector: inspector,
		store:     store,
		writer:    writer,
		backups:   backups,
		notifier:  notifier,
		opts:      opts,
		log:       logging.Get("daemon"),
		sleep:     sleepCtx,
		state:     StateIdle,
	}
}

// State returns the current detector state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// setState records a transition and refreshes the status file.
func (d *Detector) setState(s State) {
	d.mu.Lock()
	d.state = s
	status := d.statusLocked()
	d.mu.Unlock()

	d.log.Debug("state transition", "state", s)
	if d.opts.StatusPath != "" {
		if err := WriteStatus(d.opts.StatusPath, status); err != nil {
			d.log.Warn("failed to write status file", "error", err)
		}
	}
}

// Run loops detection on the configured interval, with an immediate first
// pass to establish a baseline if none exists. It exits only when ctx is
// cancelled; iteration failures are logged and retried on the next tick.
func (d *Detector) Run(ctx context.Context) error {
	d.log.Info("change detector started", "interval", d.opts.CheckInterval)

	ticker := time.NewTicker(d.opts.CheckInterval)
	defer ticker.Stop()

	d.iterate(ctx)
	for {
		select {
		case <-ctx.Done():
			d.log.Info("change detector stopping")
			return ctx.Err()
		case <-ticker.C:
			d.iterate(ctx)
		}
	}
}

// iterate runs one cycle, catching the failure at the iteration boundary so
// the daemon process never exits due to a transient error.
func (d *Detector) iterate(ctx context.Context) {
	changed, err := d.RunOnce(ctx)
	if err != nil {
		d.log.Error("check cycle failed, returning to idle", "error", err)
		d.recordError(err)
		d.setState(StateIdle)
		return
	}
	d.recordError(nil)
	if changed {
		d.log.Info("optimization cycle completed")
	}
}

// RunOnce executes one detection+diff cycle, driving the full optimize flow
// when the change is material. It reports whether a material change was
// handled.
func (d *Detector) RunOnce(ctx context.Context) (bool, error) {
	d.setState(StateChecking)
	d.mu.Lock()
	d.lastCheck = time.Now().UTC()
	d.mu.Unlock()

	current := d.inspector.Specs()
	stored, hadBaseline := d.store.Load()

	change := Diff(stored, current, d.opts.Thresholds)
	if !change.Material() {
		d.log.Debug("no material change",
			"cpu_cores", current.CPUCores, "memory_gb", current.MemoryGB, "disk_gb", current.DiskGB)
		d.setState(StateIdle)
		return false, nil
	}

	if !hadBaseline {
		d.log.Info("no stored baseline, treating current hardware as a change")
	}
	d.log.Info("material hardware change detected", "summary", change.Summary())
	d.mu.Lock()
	d.lastChange = time.Now().UTC()
	d.mu.Unlock()
	d.setState(StateChangeDetected)

	d.setState(StateNotifyingDetected)
	d.notify(notify.EventDetected, map[string]string{
		"hostname": current.Hostname,
		"summary":  change.Summary(),
	})

	d.setState(StateDelaying)
	if err := d.sleep(ctx, d.opts.SettleDelay); err != nil {
		return false, fmt.Errorf("settle delay interrupted: %w", err)
	}

	d.setState(StateOptimizing)
	backupID, err := d.Optimize(current)
	if err != nil {
		return false, err
	}

	d.setState(StateNotifyingOptimized)
	d.notify(notify.EventOptimized, map[string]string{
		"hostname":  current.Hostname,
		"summary":   change.Summary(),
		"backup_id": backupID,
		"cpu_cores": strconv.Itoa(current.CPUCores),
		"memory_gb": strconv.Itoa(current.MemoryGB),
		"disk_gb":   strconv.Itoa(current.DiskGB),
	})

	if err := d.store.Save(current); err != nil {
		return false, fmt.Errorf("persisting new spec: %w", err)
	}

	d.setState(StateIdle)
	return true, nil
}

// Optimize recomputes parameters for the given spec, snapshots the artifacts
// about to change, and applies the new configuration. It returns the backup
// ID so callers can reference the snapshot.
func (d *Detector) Optimize(spec hardware.Spec) (string, error) {
	set := params.Calculate(spec, d.opts.Ratios)

	manifest, err := d.backups.Snapshot(d.writer.TouchedPaths())
	if err != nil {
		return "", fmt.Errorf("snapshotting configurations: %w", err)
	}
	d.mu.Lock()
	d.lastBackupID = manifest.BackupID
	d.mu.Unlock()

	if err := d.writer.Apply(set); err != nil {
		return manifest.BackupID, fmt.Errorf("applying configuration (rollback available: %s): %w",
			manifest.BackupID, err)
	}

	d.log.Info("configuration applied",
		"backup_id", manifest.BackupID,
		"n8n_processes", set.N8N.ProcessCount,
		"docker_memory_gb", set.Docker.MemoryLimitGB,
		"nginx_workers", set.Nginx.WorkerProcesses,
		"redis_maxmemory_mb", set.Redis.MaxMemoryMB,
		"netdata_interval_s", set.Netdata.UpdateIntervalSec)
	return manifest.BackupID, nil
}

// ForceOptimize skips detection and diffing and runs the optimize step
// unconditionally, persisting the detected spec as the new baseline. The
// completion notification is optional.
func (d *Detector) ForceOptimize(withNotify bool) (string, error) {
	d.setState(StateOptimizing)
	spec := d.inspector.Specs()

	backupID, err := d.Optimize(spec)
	if err != nil {
		d.setState(StateIdle)
		return backupID, err
	}

	if withNotify {
		d.setState(StateNotifyingOptimized)
		d.notify(notify.EventOptimized, map[string]string{
			"hostname":  spec.Hostname,
			"summary":   "forced optimization (no change detection)",
			"backup_id": backupID,
			"cpu_cores": strconv.Itoa(spec.CPUCores),
			"memory_gb": strconv.Itoa(spec.MemoryGB),
			"disk_gb":   strconv.Itoa(spec.DiskGB),
		})
	}

	if err := d.store.Save(spec); err != nil {
		d.setState(StateIdle)
		return backupID, fmt.Errorf("persisting new spec: %w", err)
	}

	d.setState(StateIdle)
	return backupID, nil
}

// notify sends an event, treating transport failures as non-fatal.
func (d *Detector) notify(event notify.Event, details map[string]string) {
	result, err := d.notifier.Notify(event, details)
	if err != nil {
		d.log.Warn("notification failed", "event", event, "error", err)
		return
	}
	if result.Skipped {
		d.log.Info("notification skipped", "event", event, "reason", result.Reason)
	}
}

func (d *Detector) recordError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.lastError = err.Error()
	} else {
		d.lastError = ""
	}
}

// statusLocked builds a status snapshot. Caller must hold d.mu.
func (d *Detector) statusLocked() *StatusFile {
	return &StatusFile{
		State:        string(d.state),
		LastCheck:    d.lastCheck,
		LastChange:   d.lastChange,
		LastBackupID: d.lastBackupID,
		LastError:    d.lastError,
	}
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
