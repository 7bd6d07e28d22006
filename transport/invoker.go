package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// DefaultInvokeTimeout bounds a direct invocation when the call itself does
// not carry one.
const DefaultInvokeTimeout = 30 * time.Second

// stderrTailBytes limits how much captured stderr travels inside errors.
const stderrTailBytes = 512

// ProcessInvoker performs one request/response exchange with a capability
// server spawned as a child process. Every call spawns a fresh process and
// pays full spawn cost; there is no pooling or reuse, so no state leaks
// between calls. The spawned process never outlives the call: it is
// terminated on success, error, and timeout alike.
type ProcessInvoker struct {
	// DefaultTimeout applies when ToolCall.Timeout is zero.
	DefaultTimeout time.Duration
}

// NewProcessInvoker builds an invoker with the default timeout.
func NewProcessInvoker() *ProcessInvoker {
	return &ProcessInvoker{DefaultTimeout: DefaultInvokeTimeout}
}

// Invoke spawns binaryPath, writes one serialized request to its stdin,
// signals end-of-input, and reads output until the process exits or the
// timeout elapses. The last parseable line of stdout is treated as the
// response envelope.
func (p *ProcessInvoker) Invoke(ctx context.Context, binaryPath string, call ToolCall) (*ToolResult, error) {
	timeout := call.Timeout
	if timeout <= 0 {
		timeout = p.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(NewCallRequest(call.Tool, call.Params))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(cctx, binaryPath)
	// The server runs in its own process group so cancellation reaps any
	// helper children it spawned, not just the direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = bytes.NewReader(append(payload, '\n'))

	runErr := cmd.Run()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{Limit: timeout}
	}

	resp, tail := decodeLastResponse(stdout.Bytes())
	if resp == nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &ProcessExitError{
				Code:       exitErr.ExitCode(),
				StderrTail: tailOf(stderr.Bytes(), stderrTailBytes),
			}
		}
		if runErr != nil {
			return nil, fmt.Errorf("spawn %s: %w", binaryPath, runErr)
		}
		return nil, &InvalidResponseError{Tail: tail}
	}
	if resp.Error != nil {
		remote := &RemoteToolError{Code: resp.Error.Code, Message: resp.Error.Message}
		return &ToolResult{Success: false, Error: remote.Error()}, nil
	}
	var value interface{}
	if len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, &value); err != nil {
			return nil, &InvalidResponseError{Tail: string(resp.Result)}
		}
	}
	return &ToolResult{Success: true, Value: value}, nil
}
