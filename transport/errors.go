package transport

import (
	"fmt"
	"time"
)

// UnknownServerError indicates the logical server name is not present in the
// registry table. This is a caller bug (typo); retrying will not help.
type UnknownServerError struct {
	Name string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("unknown capability server %q", e.Name)
}

// NotInstalledError indicates the registry knows the server but its package
// executable could not be located. This is an environment problem; callers
// may prompt installation of the named package.
type NotInstalledError struct {
	Name    string
	Package string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("capability server %q is not installed (package %s)", e.Name, e.Package)
}

// ProcessExitError indicates the spawned server exited abnormally before a
// parseable response was captured.
type ProcessExitError struct {
	Code       int
	StderrTail string
}

func (e *ProcessExitError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("capability server exited with code %d", e.Code)
	}
	return fmt.Sprintf("capability server exited with code %d: %s", e.Code, e.StderrTail)
}

// InvalidResponseError indicates the server exited cleanly but produced no
// parseable response envelope. Tail carries the raw trailing output.
type InvalidResponseError struct {
	Tail string
}

func (e *InvalidResponseError) Error() string {
	if e.Tail == "" {
		return "capability server produced no parseable response"
	}
	return fmt.Sprintf("capability server produced no parseable response, output tail: %s", e.Tail)
}

// TimeoutError indicates the call exceeded its deadline and the process was
// killed.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("capability server call timed out after %s", e.Limit)
}

// GatewayUnreachableError wraps a transport-level failure talking to the
// shared gateway.
type GatewayUnreachableError struct {
	Endpoint string
	Err      error
}

func (e *GatewayUnreachableError) Error() string {
	return fmt.Sprintf("gateway %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *GatewayUnreachableError) Unwrap() error { return e.Err }

// RemoteToolError indicates the called tool itself reported failure. It is
// not an invocation-layer bug; only the message distinguishes it upstream.
type RemoteToolError struct {
	Code    int
	Message string
}

func (e *RemoteToolError) Error() string {
	return fmt.Sprintf("tool error %d: %s", e.Code, e.Message)
}
