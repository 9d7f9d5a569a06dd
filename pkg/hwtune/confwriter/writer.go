// Package confwriter applies a derived parameter set to the managed service
// configuration artifacts. Only known tuning keys are rewritten; every other
// line, including formatting and comments, is left byte-for-byte untouched.
// Applying the same parameter set twice produces identical output.
//
// A missing artifact or missing key is a loud failure: a silently-unapplied
// tuning parameter would leave a service misconfigured without any signal.
package confwriter

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Mola-TT/hwtune/pkg/hwtune/logging"
	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
)

// Managed service identifiers.
const (
	ServiceN8N     = "n8n"
	ServiceDocker  = "docker"
	ServiceNginx   = "nginx"
	ServiceRedis   = "redis"
	ServiceNetdata = "netdata"
)

// Sentinel errors for apply failures.
var (
	// ErrArtifactMissing indicates the target configuration file does not exist.
	ErrArtifactMissing = errors.New("configuration artifact missing")

	// ErrKeyNotFound indicates a tuning key expected in the artifact is absent.
	// This signals drift between the optimizer and the artifact's actual shape.
	ErrKeyNotFound = errors.New("tuning key not found")

	// ErrUnknownService indicates an unrecognized service identifier.
	ErrUnknownService = errors.New("unknown service")
)

// Artifacts locates the configuration files the writer manages.
type Artifacts struct {
	N8NEnv      string
	ComposeFile string
	NginxConf   string
	RedisConf   string
	NetdataConf string
}

// Writer rewrites tuning keys inside the managed artifacts.
type Writer struct {
	artifacts      Artifacts
	composeService string
	log            *logging.Logger
}

// New creates a Writer for the given artifact set. The compose rewrites
// target the "n8n" service block.
func New(artifacts Artifacts) *Writer {
	return &Writer{
		artifacts:      artifacts,
		composeService: "n8n",
		log:            logging.Get("writer"),
	}
}

// Services lists the managed service identifiers in apply order.
func Services() []string {
	return []string{ServiceN8N, ServiceDocker, ServiceNginx, ServiceRedis, ServiceNetdata}
}

// TouchedPaths returns every artifact path an Apply may mutate, in apply
// order. The backup manager snapshots exactly these before a run.
func (w *Writer) TouchedPaths() []string {
	return []string{
		w.artifacts.N8NEnv,
		w.artifacts.ComposeFile,
		w.artifacts.NginxConf,
		w.artifacts.RedisConf,
		w.artifacts.NetdataConf,
	}
}

// Apply writes the full parameter set, one service at a time. The first
// failing service aborts the apply; the caller rolls back from its snapshot.
func (w *Writer) Apply(set params.Set) error {
	for _, service := range Services() {
		if err := w.ApplyService(service, set); err != nil {
			return fmt.Errorf("applying %s config: %w", service, err)
		}
	}
	return nil
}

// ApplyService rewrites the tuning keys for a single managed service.
func (w *Writer) ApplyService(service string, set params.Set) error {
	switch service {
	case ServiceN8N:
		return w.applyN8N(set.N8N)
	case ServiceDocker:
		return w.applyDocker(set.Docker)
	case ServiceNginx:
		return w.applyNginx(set.Nginx)
	case ServiceRedis:
		return w.applyRedis(set.Redis)
	case ServiceNetdata:
		return w.applyNetdata(set.Netdata)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
}

func (w *Writer) applyN8N(p params.N8NParams) error {
	return w.rewrite(w.artifacts.N8NEnv, func(data []byte) ([]byte, error) {
		return rewriteEnv(data, []assignment{
			{key: "EXECUTIONS_PROCESS_MAX", value: strconv.Itoa(p.ProcessCount)},
			{key: "NODE_OPTIONS", value: fmt.Sprintf("--max-old-space-size=%d", p.MemoryLimitMB)},
			{key: "EXECUTIONS_TIMEOUT", value: strconv.Itoa(p.ExecutionTimeoutSec)},
			{key: "N8N_WEBHOOK_TIMEOUT", value: strconv.Itoa(p.WebhookTimeoutSec)},
		})
	})
}

func (w *Writer) applyDocker(p params.DockerParams) error {
	return w.rewrite(w.artifacts.ComposeFile, func(data []byte) ([]byte, error) {
		return rewriteCompose(data, w.composeService, []assignment{
			{key: "mem_limit", value: fmt.Sprintf("%dg", p.MemoryLimitGB)},
			{key: "cpus", value: fmt.Sprintf("%q", strconv.FormatFloat(p.CPULimit, 'f', 1, 64))},
			{key: "shm_size", value: fmt.Sprintf("%dm", p.ShmSizeMB)},
		})
	})
}

func (w *Writer) applyNginx(p params.NginxParams) error {
	return w.rewrite(w.artifacts.NginxConf, func(data []byte) ([]byte, error) {
		return rewriteDirectives(data, ";", []assignment{
			{key: "worker_processes", value: strconv.Itoa(p.WorkerProcesses)},
			{key: "worker_connections", value: strconv.Itoa(p.WorkerConnections)},
			{key: "client_max_body_size", value: fmt.Sprintf("%dm", p.ClientMaxBodyMB)},
		})
	})
}

func (w *Writer) applyRedis(p params.RedisParams) error {
	return w.rewrite(w.artifacts.RedisConf, func(data []byte) ([]byte, error) {
		return rewriteDirectives(data, "", []assignment{
			{key: "maxmemory", value: fmt.Sprintf("%dmb", p.MaxMemoryMB)},
			{key: "maxmemory-policy", value: p.EvictionPolicy},
		})
	})
}

func (w *Writer) applyNetdata(p params.NetdataParams) error {
	return w.rewrite(w.artifacts.NetdataConf, func(data []byte) ([]byte, error) {
		data, err := rewriteINI(data, "global", "update every", strconv.Itoa(p.UpdateIntervalSec))
		if err != nil {
			return nil, err
		}
		return rewriteINI(data, "db", "dbengine page cache size MB", strconv.Itoa(p.MemoryLimitMB))
	})
}

// rewrite reads an artifact, applies the transform, and writes the result
// atomically. Unchanged content is not rewritten, so a second apply of the
// same parameters leaves the file untouched.
func (w *Writer) rewrite(path string, transform func([]byte) ([]byte, error)) error {
	if path == "" {
		return fmt.Errorf("%w: no path configured", ErrArtifactMissing)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	updated, err := transform(original)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if bytes.Equal(original, updated) {
		w.log.Debug("artifact already up to date", "path", path)
		return nil
	}

	if err := writeAtomic(path, updated); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w.log.Info("artifact updated", "path", path)
	return nil
}

// writeAtomic replaces path via a temp file and rename, preserving the
// original file mode.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
