// Package config loads the workspace-local toolgate configuration: the
// capability-server registry table, gateway endpoint, and telemetry/history
// paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/toolgate/transport"
)

const configDirName = "toolgate_cfg"

// ConfigDir returns the workspace-local configuration directory.
func ConfigDir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configDirName)
}

// DefaultConfigPath returns toolgate_cfg/config.yaml within the workspace.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(ConfigDir(workspace), "config.yaml")
}

// Config matches toolgate_cfg/config.yaml inside the workspace.
type Config struct {
	Version   string                           `yaml:"version"`
	Gateway   GatewayConfig                    `yaml:"gateway"`
	Servers   map[string]transport.ServerEntry `yaml:"servers"`
	BinDirs   []string                         `yaml:"bin_dirs,omitempty"`
	Telemetry TelemetryConfig                  `yaml:"telemetry"`
	History   HistoryConfig                    `yaml:"history"`
}

// GatewayConfig locates the shared gateway and bounds its probes.
type GatewayConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutMs      int    `yaml:"timeout_ms,omitempty"`
	ProbeTimeoutMs int    `yaml:"probe_timeout_ms,omitempty"`
}

// ProbeTimeout returns the configured probe bound or the package default.
func (g GatewayConfig) ProbeTimeout() time.Duration {
	if g.ProbeTimeoutMs <= 0 {
		return transport.DefaultProbeTimeout
	}
	return time.Duration(g.ProbeTimeoutMs) * time.Millisecond
}

// TelemetryConfig describes event sinks.
type TelemetryConfig struct {
	File string `yaml:"file,omitempty"`
	Log  bool   `yaml:"log,omitempty"`
}

// HistoryConfig locates the run-history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no config file exists.
func Default(workspace string) *Config {
	return &Config{
		Version: "1.0.0",
		Gateway: GatewayConfig{Endpoint: transport.DefaultGatewayEndpoint},
		Servers: map[string]transport.ServerEntry{},
		History: HistoryConfig{Path: filepath.Join(ConfigDir(workspace), "runs.db")},
	}
}

// Load reads the config or returns defaults when the file is missing.
func Load(path, workspace string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(workspace), nil
		}
		return nil, err
	}
	cfg := Default(workspace)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Gateway.Endpoint == "" {
		cfg.Gateway.Endpoint = transport.DefaultGatewayEndpoint
	}
	if cfg.Servers == nil {
		cfg.Servers = map[string]transport.ServerEntry{}
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(ConfigDir(workspace), "runs.db")
	}
	return cfg, nil
}
