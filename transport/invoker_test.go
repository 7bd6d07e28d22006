package transport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// writeScript drops an executable shell script into a temp dir so invoker
// tests can stand in for real capability servers.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capability")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestInvokeSuccessRoundTrip(t *testing.T) {
	path := writeScript(t, `read line
echo "diagnostic noise"
echo "not json either"
echo '{"jsonrpc":"2.0","id":"1","result":{"echo":"hi"}}'
`)
	invoker := NewProcessInvoker()
	result, err := invoker.Invoke(context.Background(), path, ToolCall{Server: "stub", Tool: "echo"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	value, ok := result.Value.(map[string]interface{})
	if !ok || value["echo"] != "hi" {
		t.Fatalf("unexpected value: %+v", result.Value)
	}
}

func TestInvokeRemoteToolError(t *testing.T) {
	path := writeScript(t, `read line
echo '{"jsonrpc":"2.0","id":"1","error":{"code":-32000,"message":"boom"}}'
`)
	invoker := NewProcessInvoker()
	result, err := invoker.Invoke(context.Background(), path, ToolCall{Server: "stub", Tool: "fail"})
	if err != nil {
		t.Fatalf("remote tool errors must fold into the result, got %v", err)
	}
	if result.Success || !strings.Contains(result.Error, "boom") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInvokeInvalidResponse(t *testing.T) {
	path := writeScript(t, `read line
echo "garbage output only"
`)
	invoker := NewProcessInvoker()
	_, err := invoker.Invoke(context.Background(), path, ToolCall{Server: "stub", Tool: "echo"})
	var invalid *InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError, got %v", err)
	}
	if !strings.Contains(invalid.Tail, "garbage") {
		t.Fatalf("expected raw tail in error, got %q", invalid.Tail)
	}
}

func TestInvokeProcessExit(t *testing.T) {
	path := writeScript(t, `read line
echo "dying" 1>&2
exit 3
`)
	invoker := NewProcessInvoker()
	_, err := invoker.Invoke(context.Background(), path, ToolCall{Server: "stub", Tool: "echo"})
	var exit *ProcessExitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected ProcessExitError, got %v", err)
	}
	if exit.Code != 3 || !strings.Contains(exit.StderrTail, "dying") {
		t.Fatalf("unexpected exit error: %+v", exit)
	}
}

// TestInvokeTimeoutKillsProcess drives a slow server with a near-zero timeout
// and confirms both the Timeout error and that the spawned process is gone
// afterward.
func TestInvokeTimeoutKillsProcess(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "pid")
	path := writeScript(t, fmt.Sprintf(`echo $$ > %s
sleep 30
`, pidFile))
	invoker := NewProcessInvoker()
	start := time.Now()
	_, err := invoker.Invoke(context.Background(), path, ToolCall{Server: "stub", Tool: "sleep", Timeout: 100 * time.Millisecond})
	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout took too long: %s", elapsed)
	}

	data, readErr := os.ReadFile(pidFile)
	if readErr != nil {
		t.Fatalf("read pid file: %v", readErr)
	}
	pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr != nil {
		t.Fatalf("parse pid: %v", convErr)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, 0) != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("process %d still alive after timeout", pid)
}

func TestInvokeMissingBinary(t *testing.T) {
	invoker := NewProcessInvoker()
	_, err := invoker.Invoke(context.Background(), filepath.Join(t.TempDir(), "nope"), ToolCall{Server: "stub", Tool: "echo"})
	if err == nil {
		t.Fatalf("expected spawn error for missing binary")
	}
}
