package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/toolgate/transport"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	workspace := t.TempDir()
	cfg, err := Load(DefaultConfigPath(workspace), workspace)
	require.NoError(t, err)

	assert.Equal(t, transport.DefaultGatewayEndpoint, cfg.Gateway.Endpoint)
	assert.NotNil(t, cfg.Servers)
	assert.Equal(t, filepath.Join(workspace, "toolgate_cfg", "runs.db"), cfg.History.Path)
}

func TestLoadParsesRegistry(t *testing.T) {
	workspace := t.TempDir()
	path := filepath.Join(workspace, "config.yaml")
	raw := `version: "1.0.0"
gateway:
  endpoint: http://gateway.internal:9000
  probe_timeout_ms: 500
servers:
  code-review:
    package: "@acme/code-review"
    binary: acme-code-review
  security-scanner:
    package: "@acme/security-scanner"
bin_dirs:
  - /opt/capabilities/bin
telemetry:
  file: events.jsonl
  log: true
history:
  path: history.db
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path, workspace)
	require.NoError(t, err)

	assert.Equal(t, "http://gateway.internal:9000", cfg.Gateway.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.Gateway.ProbeTimeout())
	require.Contains(t, cfg.Servers, "code-review")
	assert.Equal(t, "@acme/code-review", cfg.Servers["code-review"].Package)
	assert.Equal(t, "acme-code-review", cfg.Servers["code-review"].Binary)
	assert.Equal(t, "", cfg.Servers["security-scanner"].Binary)
	assert.Equal(t, []string{"/opt/capabilities/bin"}, cfg.BinDirs)
	assert.True(t, cfg.Telemetry.Log)
	assert.Equal(t, "history.db", cfg.History.Path)
}

func TestLoadFillsOmittedFields(t *testing.T) {
	workspace := t.TempDir()
	path := filepath.Join(workspace, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0.0\"\n"), 0o644))

	cfg, err := Load(path, workspace)
	require.NoError(t, err)

	assert.Equal(t, transport.DefaultGatewayEndpoint, cfg.Gateway.Endpoint)
	assert.Equal(t, transport.DefaultProbeTimeout, cfg.Gateway.ProbeTimeout())
	assert.NotNil(t, cfg.Servers)
	assert.NotEmpty(t, cfg.History.Path)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	workspace := t.TempDir()
	path := filepath.Join(workspace, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("servers: [not: a: map\n"), 0o644))

	_, err := Load(path, workspace)
	require.Error(t, err)
}
