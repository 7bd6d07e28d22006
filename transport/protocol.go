package transport

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// protocolVersion is the JSON-RPC version stamped on every envelope.
const protocolVersion = "2.0"

// callMethod is the single method capability servers accept.
const callMethod = "tools/call"

// Request is the envelope written to a capability server's stdin.
type Request struct {
	Version string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  CallParams `json:"params"`
}

// CallParams names the tool and carries its arguments.
type CallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

// Response is the envelope read back from a capability server. Either Result
// or Error is set, never both.
type Response struct {
	Version string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the error half of a response envelope.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewCallRequest builds a request envelope with a fresh ID.
func NewCallRequest(tool string, args map[string]interface{}) Request {
	return Request{
		Version: protocolVersion,
		ID:      uuid.NewString(),
		Method:  callMethod,
		Params:  CallParams{Name: tool, Arguments: args},
	}
}

// decodeLastResponse scans captured stdout and returns the last line that
// parses as a response envelope, tolerating diagnostic output on preceding
// lines. The returned tail holds the trailing raw output for error reporting
// when no envelope is found.
//
// Relying on output ordering is a known weak point: a child that interleaves
// concurrent diagnostic writes with its final response line can corrupt the
// envelope. Servers that need robustness should keep diagnostics on stderr.
func decodeLastResponse(output []byte) (*Response, string) {
	lines := bytes.Split(output, []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.Version == "" && resp.Result == nil && resp.Error == nil {
			continue
		}
		return &resp, ""
	}
	return nil, tailOf(output, 512)
}

// tailOf returns the last max bytes of output, trimmed, for diagnostics.
func tailOf(output []byte, max int) string {
	s := strings.TrimSpace(string(output))
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
