package confwriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mola-TT/hwtune/pkg/hwtune/params"
)

const n8nEnvFixture = `# n8n runtime configuration
N8N_HOST=workflows.example.com
N8N_PORT=5678

# Tuning (managed by hwtune)
EXECUTIONS_PROCESS_MAX=2
NODE_OPTIONS=--max-old-space-size=1024
EXECUTIONS_TIMEOUT=300
N8N_WEBHOOK_TIMEOUT=225

WEBHOOK_URL=https://workflows.example.com/
`

const composeFixture = `version: "3.8"

services:
  n8n:
    image: n8nio/n8n:latest
    restart: unless-stopped
    mem_limit: 2g
    cpus: "1.0"
    shm_size: 128m
    ports:
      - "5678:5678"
  redis:
    image: redis:7
    mem_limit: 1g
`

const nginxFixture = `user www-data;
worker_processes 2;
pid /run/nginx.pid;

events {
    worker_connections 512;
}

http {
    client_max_body_size 16m;
    sendfile on;
}
`

const redisFixture = `bind 127.0.0.1
port 6379
maxmemory 128mb
maxmemory-policy noeviction
appendonly no
`

const netdataFixture = `[global]
    run as user = netdata
    update every = 3

[db]
    mode = dbengine
    dbengine page cache size MB = 32

[web]
    bind to = 127.0.0.1
`

func fixtureSet() params.Set {
	return params.Set{
		N8N: params.N8NParams{
			ProcessCount:        12,
			MemoryLimitMB:       49152,
			ExecutionTimeoutSec: 1200,
			WebhookTimeoutSec:   900,
		},
		Docker: params.DockerParams{MemoryLimitGB: 48, CPULimit: 8.0, ShmSizeMB: 3072},
		Nginx:  params.NginxParams{WorkerProcesses: 16, WorkerConnections: 16384, ClientMaxBodyMB: 512},
		Redis:  params.RedisParams{MaxMemoryMB: 9830, EvictionPolicy: "allkeys-lru"},
		Netdata: params.NetdataParams{
			UpdateIntervalSec: 1,
			MemoryLimitMB:     1310,
		},
	}
}

func writeFixtures(t *testing.T) (Artifacts, *Writer) {
	t.Helper()
	dir := t.TempDir()
	artifacts := Artifacts{
		N8NEnv:      filepath.Join(dir, ".env"),
		ComposeFile: filepath.Join(dir, "docker-compose.yml"),
		NginxConf:   filepath.Join(dir, "nginx.conf"),
		RedisConf:   filepath.Join(dir, "redis.conf"),
		NetdataConf: filepath.Join(dir, "netdata.conf"),
	}
	require.NoError(t, os.WriteFile(artifacts.N8NEnv, []byte(n8nEnvFixture), 0o644))
	require.NoError(t, os.WriteFile(artifacts.ComposeFile, []byte(composeFixture), 0o644))
	require.NoError(t, os.WriteFile(artifacts.NginxConf, []byte(nginxFixture), 0o644))
	require.NoError(t, os.WriteFile(artifacts.RedisConf, []byte(redisFixture), 0o644))
	require.NoError(t, os.WriteFile(artifacts.NetdataConf, []byte(netdataFixture), 0o644))
	return artifacts, New(artifacts)
}

func TestApply_RewritesOnlyTuningKeys(t *testing.T) {
	artifacts, w := writeFixtures(t)
	require.NoError(t, w.Apply(fixtureSet()))

	env, err := os.ReadFile(artifacts.N8NEnv)
	require.NoError(t, err)
	assert.Contains(t, string(env), "EXECUTIONS_PROCESS_MAX=12")
	assert.Contains(t, string(env), "NODE_OPTIONS=--max-old-space-size=49152")
	assert.Contains(t, string(env), "EXECUTIONS_TIMEOUT=1200")
	assert.Contains(t, string(env), "N8N_WEBHOOK_TIMEOUT=900")
	// Unrelated keys and comments survive untouched.
	assert.Contains(t, string(env), "N8N_HOST=workflows.example.com")
	assert.Contains(t, string(env), "# Tuning (managed by hwtune)")

	compose, err := os.ReadFile(artifacts.ComposeFile)
	require.NoError(t, err)
	assert.Contains(t, string(compose), "    mem_limit: 48g")
	assert.Contains(t, string(compose), `    cpus: "8.0"`)
	assert.Contains(t, string(compose), "    shm_size: 3072m")
	// The redis service's mem_limit is not part of the n8n block.
	assert.Contains(t, string(compose), "    mem_limit: 1g")

	nginx, err := os.ReadFile(artifacts.NginxConf)
	require.NoError(t, err)
	assert.Contains(t, string(nginx), "worker_processes 16;")
	assert.Contains(t, string(nginx), "    worker_connections 16384;")
	assert.Contains(t, string(nginx), "    client_max_body_size 512m;")
	assert.Contains(t, string(nginx), "sendfile on;")

	redis, err := os.ReadFile(artifacts.RedisConf)
	require.NoError(t, err)
	assert.Contains(t, string(redis), "maxmemory 9830mb")
	assert.Contains(t, string(redis), "maxmemory-policy allkeys-lru")
	assert.Contains(t, string(redis), "bind 127.0.0.1")

	netdata, err := os.ReadFile(artifacts.NetdataConf)
	require.NoError(t, err)
	assert.Contains(t, string(netdata), "    update every = 1")
	assert.Contains(t, string(netdata), "    dbengine page cache size MB = 1310")
	assert.Contains(t, string(netdata), "bind to = 127.0.0.1")
}

func TestApply_Idempotent(t *testing.T) {
	artifacts, w := writeFixtures(t)
	set := fixtureSet()

	require.NoError(t, w.Apply(set))
	first := readAll(t, artifacts)

	require.NoError(t, w.Apply(set))
	second := readAll(t, artifacts)

	assert.Equal(t, first, second, "second apply must be byte-identical")
}

func TestApply_MissingArtifactFailsLoudly(t *testing.T) {
	artifacts, _ := writeFixtures(t)
	require.NoError(t, os.Remove(artifacts.RedisConf))

	w := New(artifacts)
	err := w.Apply(fixtureSet())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactMissing)
	assert.Contains(t, err.Error(), "redis")
}

func TestApply_MissingKeyFailsLoudly(t *testing.T) {
	artifacts, _ := writeFixtures(t)
	// Drop the webhook timeout key entirely; the writer must not skip it.
	require.NoError(t, os.WriteFile(artifacts.N8NEnv, []byte("N8N_HOST=x\nEXECUTIONS_PROCESS_MAX=2\nNODE_OPTIONS=--max-old-space-size=512\nEXECUTIONS_TIMEOUT=300\n"), 0o644))

	w := New(artifacts)
	err := w.ApplyService(ServiceN8N, fixtureSet())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, err.Error(), "N8N_WEBHOOK_TIMEOUT")
}

func TestApplyService_UnknownService(t *testing.T) {
	_, w := writeFixtures(t)
	err := w.ApplyService("postgres", fixtureSet())
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestApply_PreservesFileEnding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "redis.conf")
	// No trailing newline on purpose.
	require.NoError(t, os.WriteFile(path, []byte("maxmemory 64mb\nmaxmemory-policy noeviction"), 0o644))

	artifacts := Artifacts{RedisConf: path}
	w := New(artifacts)
	require.NoError(t, w.ApplyService(ServiceRedis, fixtureSet()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "maxmemory 9830mb\nmaxmemory-policy allkeys-lru", string(data))
}

func TestTouchedPaths_MatchesApplyOrder(t *testing.T) {
	artifacts, w := writeFixtures(t)
	paths := w.TouchedPaths()
	require.Len(t, paths, 5)
	assert.Equal(t, artifacts.N8NEnv, paths[0])
	assert.Equal(t, artifacts.NetdataConf, paths[4])
}

func readAll(t *testing.T, a Artifacts) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, p := range []string{a.N8NEnv, a.ComposeFile, a.NginxConf, a.RedisConf, a.NetdataConf} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		out[p] = string(data)
	}
	return out
}
