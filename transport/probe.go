package transport

import (
	"context"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// DefaultProbeTimeout bounds each individual probe check.
const DefaultProbeTimeout = 2 * time.Second

// runtimeBinaries are the container engines checked for direct-transport
// operator hints, in preference order.
var runtimeBinaries = []string{"docker", "podman"}

// TransportProbe detects whether the shared gateway is reachable and whether
// a container runtime is present. Both checks are bounded-time and
// non-throwing: any network or process error maps to false. Probing is
// advisory and only picks a default transport; it never gates correctness.
type TransportProbe struct {
	client     *http.Client
	lookPath   func(string) (string, error)
	runCommand func(ctx context.Context, name string, args ...string) error
}

// NewTransportProbe builds a probe with default checkers.
func NewTransportProbe() *TransportProbe {
	return &TransportProbe{
		client:     &http.Client{},
		lookPath:   exec.LookPath,
		runCommand: runSilent,
	}
}

// CheckGateway reports whether the gateway health endpoint answers with a
// success status within the timeout.
func (p *TransportProbe) CheckGateway(ctx context.Context, endpoint string, timeout time.Duration) bool {
	if endpoint == "" {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	url := strings.TrimSuffix(endpoint, "/") + "/health"
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

// CheckRuntimeAvailable reports whether a container engine is installed and
// answering. A present-but-sick engine counts as unavailable.
func (p *TransportProbe) CheckRuntimeAvailable(ctx context.Context) bool {
	for _, binary := range runtimeBinaries {
		path, err := p.lookPath(binary)
		if err != nil {
			continue
		}
		if p.runCommand(ctx, path, "info") == nil {
			return true
		}
	}
	return false
}

// runSilent executes a short-lived command, discarding output.
func runSilent(ctx context.Context, name string, args ...string) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return exec.CommandContext(cctx, name, args...).Run()
}
