package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultGatewayEndpoint is the well-known local address of the shared
// gateway. Overridable through configuration.
const DefaultGatewayEndpoint = "http://127.0.0.1:8787"

// DefaultGatewayTimeout bounds every gateway round trip.
const DefaultGatewayTimeout = 60 * time.Second

// capKey identifies one (server, tool) pair in the loaded set.
type capKey struct {
	server string
	tool   string
}

// GatewayClient talks to the shared gateway over HTTP. It tracks which
// (server, tool) pairs are already loaded into the gateway's active context
// so redundant load calls stay local, and keeps a latest-wins cache of server
// metadata. Remote failures surface as failed ToolResults or wrapped errors,
// never as panics; only local programming misuse raises synchronously.
type GatewayClient struct {
	endpoint string
	client   *http.Client

	mu      sync.Mutex
	loaded  map[capKey]struct{}
	servers map[string]ServerMetadata
}

// NewGatewayClient builds a client against the endpoint, falling back to the
// well-known local address when empty.
func NewGatewayClient(endpoint string) *GatewayClient {
	if endpoint == "" {
		endpoint = DefaultGatewayEndpoint
	}
	return &GatewayClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: DefaultGatewayTimeout},
		loaded:   make(map[capKey]struct{}),
		servers:  make(map[string]ServerMetadata),
	}
}

// Endpoint returns the configured gateway address.
func (g *GatewayClient) Endpoint() string { return g.endpoint }

// FindTools searches the gateway's capability index. Pure discovery: it
// touches neither the loaded set nor the gateway's active context.
func (g *GatewayClient) FindTools(ctx context.Context, query string) ([]ToolMetadata, error) {
	var payload struct {
		Tools []ToolMetadata `json:"tools"`
	}
	if err := g.post(ctx, "/mcp-find", map[string]interface{}{"query": query}, &payload); err != nil {
		return nil, err
	}
	return payload.Tools, nil
}

// LoadTools makes the named tools available in the gateway's active context.
// Idempotent: tools already in the loaded set are filtered out first, and the
// call no-ops entirely when nothing remains. The loaded set is updated only
// after a confirmed success response.
func (g *GatewayClient) LoadTools(ctx context.Context, server string, tools []string) error {
	g.mu.Lock()
	missing := make([]string, 0, len(tools))
	for _, tool := range tools {
		if _, ok := g.loaded[capKey{server, tool}]; !ok {
			missing = append(missing, tool)
		}
	}
	g.mu.Unlock()
	if len(missing) == 0 {
		return nil
	}
	payload := map[string]interface{}{"server": server, "tools": missing}
	if err := g.post(ctx, "/mcp-add", payload, nil); err != nil {
		return err
	}
	g.mu.Lock()
	for _, tool := range missing {
		g.loaded[capKey{server, tool}] = struct{}{}
	}
	g.mu.Unlock()
	return nil
}

// ClearLoaded empties the loaded set, forcing the next LoadTools to reissue
// network calls. Useful after a gateway restart.
func (g *GatewayClient) ClearLoaded() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loaded = make(map[capKey]struct{})
}

// Loaded reports whether a (server, tool) pair is in the loaded set.
func (g *GatewayClient) Loaded(server, tool string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.loaded[capKey{server, tool}]
	return ok
}

// CallTool guarantees the tool is loaded, then performs one gateway call.
// Transport-level failures fold into the returned ToolResult.
func (g *GatewayClient) CallTool(ctx context.Context, call ToolCall) *ToolResult {
	if err := g.LoadTools(ctx, call.Server, []string{call.Tool}); err != nil {
		return FailedResult(err)
	}
	var result ToolResult
	payload := map[string]interface{}{
		"server": call.Server,
		"tool":   call.Tool,
		"params": call.Params,
	}
	cctx := ctx
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}
	if err := g.post(cctx, "/call", payload, &result); err != nil {
		return FailedResult(err)
	}
	return &result
}

// ExecuteSandboxed submits a small script plus the capability servers it may
// call; the gateway runs it in isolation and returns one aggregated result.
// Intermediate tool-call results never cross back to the caller, which makes
// this the most context-efficient path. An empty server list is local misuse
// and raises synchronously.
func (g *GatewayClient) ExecuteSandboxed(ctx context.Context, code string, servers []string, params map[string]interface{}, timeout time.Duration) (*ToolResult, error) {
	if len(servers) == 0 {
		return nil, errors.New("executeSandboxed requires at least one capability server")
	}
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	payload := map[string]interface{}{
		"code":       code,
		"servers":    servers,
		"params":     params,
		"timeout_ms": timeout.Milliseconds(),
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	var result ToolResult
	if err := g.post(cctx, "/code-mode", payload, &result); err != nil {
		return FailedResult(err), nil
	}
	return &result, nil
}

// ListServers refreshes the server-metadata cache from the gateway. The cache
// is a simple latest-wins map keyed by server name, not versioned.
func (g *GatewayClient) ListServers(ctx context.Context) ([]ServerMetadata, error) {
	var payload struct {
		Servers []ServerMetadata `json:"servers"`
	}
	if err := g.get(ctx, "/servers", &payload); err != nil {
		return nil, err
	}
	g.mu.Lock()
	for _, server := range payload.Servers {
		g.servers[server.Name] = server
	}
	g.mu.Unlock()
	return payload.Servers, nil
}

// HasServer checks whether the gateway exposes the named server.
func (g *GatewayClient) HasServer(ctx context.Context, name string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, g.endpoint+"/servers/"+name, nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

// CachedServer returns the cached metadata for a server name, if any.
func (g *GatewayClient) CachedServer(name string) (ServerMetadata, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	server, ok := g.servers[name]
	return server, ok
}

// post issues a JSON POST and decodes the response body into out when non-nil.
func (g *GatewayClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req, out)
}

// get issues a GET and decodes the response body into out.
func (g *GatewayClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	return g.do(req, out)
}

func (g *GatewayClient) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return &GatewayUnreachableError{Endpoint: g.endpoint, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &GatewayUnreachableError{
			Endpoint: g.endpoint,
			Err:      fmt.Errorf("%s returned %s: %s", req.URL.Path, resp.Status, strings.TrimSpace(string(tail))),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayUnreachableError{Endpoint: g.endpoint, Err: fmt.Errorf("decode %s response: %w", req.URL.Path, err)}
	}
	return nil
}
