// Package transport implements the two invocation channels for capability
// servers: direct per-call process spawning and the shared gateway proxy. A
// TransportSelector picks one of the two at startup and exposes a uniform
// Invoke call to the orchestration layer.
package transport

import "time"

// ToolCall identifies one invocation of a named tool on a capability server.
// It is immutable once constructed; nothing in this package mutates it after
// dispatch.
type ToolCall struct {
	Server  string                 `json:"server"`
	Tool    string                 `json:"tool"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Timeout time.Duration          `json:"-"`
}

// ToolResult is returned by every invocation. Exactly one of Value/Error is
// meaningful, gated by Success.
type ToolResult struct {
	Success bool        `json:"success"`
	Value   interface{} `json:"value,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// FailedResult folds an invocation-layer error into a ToolResult so callers
// above the transport never see raised errors for tool or transport failures.
func FailedResult(err error) *ToolResult {
	return &ToolResult{Success: false, Error: err.Error()}
}

// ToolMetadata describes a tool discovered through the gateway.
type ToolMetadata struct {
	Server      string `json:"server"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ServerMetadata describes a capability server known to the gateway.
type ServerMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tools       []string `json:"tools,omitempty"`
}
