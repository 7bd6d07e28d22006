package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/sourcegraph/jsonrpc2"
)

// StdioSession keeps one capability server alive across several
// request/response exchanges over newline-delimited JSON-RPC on its standard
// streams. It complements ProcessInvoker for callers issuing repeated calls
// against the same server where per-call spawn cost matters; the per-call
// invoker's no-reuse semantics are unchanged.
type StdioSession struct {
	cmd    *exec.Cmd
	conn   *jsonrpc2.Conn
	cancel context.CancelFunc
}

// NewStdioSession launches binaryPath and wires a JSON-RPC connection over
// its stdio. The process is killed if the connection cannot be established.
func NewStdioSession(ctx context.Context, binaryPath string) (*StdioSession, error) {
	if binaryPath == "" {
		return nil, errors.New("binary path required for stdio session")
	}
	cctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cctx, binaryPath, "--serve")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	go io.Copy(os.Stderr, stderr)

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	rwc := &stdioReadWriteCloser{reader: stdout, writer: stdin}
	session := &StdioSession{cmd: cmd, cancel: cancel}
	session.conn = newSessionConn(cctx, rwc)
	return session, nil
}

// newSessionConn builds the JSON-RPC connection for a session. Capability
// servers never call back, so the handler rejects incoming requests.
func newSessionConn(ctx context.Context, rwc io.ReadWriteCloser) *jsonrpc2.Conn {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.PlainObjectCodec{})
	handler := jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if req.Notif {
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
	})
	return jsonrpc2.NewConn(ctx, stream, handler)
}

// Call performs one tools/call exchange over the live session. Tool-reported
// errors fold into a failed ToolResult; connection-level trouble is returned
// as an error.
func (s *StdioSession) Call(ctx context.Context, tool string, args map[string]interface{}) (*ToolResult, error) {
	if s == nil || s.conn == nil {
		return nil, errors.New("stdio session not connected")
	}
	var raw json.RawMessage
	err := s.conn.Call(ctx, callMethod, CallParams{Name: tool, Arguments: args}, &raw)
	if err != nil {
		var rpcErr *jsonrpc2.Error
		if errors.As(err, &rpcErr) {
			remote := &RemoteToolError{Code: int(rpcErr.Code), Message: rpcErr.Message}
			return &ToolResult{Success: false, Error: remote.Error()}, nil
		}
		return nil, err
	}
	var value interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, &InvalidResponseError{Tail: string(raw)}
		}
	}
	return &ToolResult{Success: true, Value: value}, nil
}

// Close tears down the connection and terminates the server process.
func (s *StdioSession) Close() error {
	if s == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_, _ = s.cmd.Process.Wait()
	}
	return nil
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
