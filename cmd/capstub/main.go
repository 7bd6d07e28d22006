// capstub is a minimal capability server for local smoke testing. It speaks
// the single-exchange stdio protocol by default and a persistent JSON-RPC
// stream with --serve. Tools: echo, sleep, fail.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

type request struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"params"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *responseError  `json:"error,omitempty"`
}

func main() {
	serve := len(os.Args) > 1 && os.Args[1] == "--serve"

	dec := json.NewDecoder(os.Stdin)
	enc := json.NewEncoder(os.Stdout)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			fmt.Fprintf(os.Stderr, "capstub: decode request: %v\n", err)
			os.Exit(1)
		}
		if !serve {
			// Diagnostic noise on stdout; invokers must tolerate it.
			fmt.Printf("capstub: handling %s\n", req.Params.Name)
		}
		if err := enc.Encode(handle(req)); err != nil {
			fmt.Fprintf(os.Stderr, "capstub: encode response: %v\n", err)
			os.Exit(1)
		}
	}
}

func handle(req request) response {
	resp := response{Version: "2.0", ID: req.ID}
	if req.Method != "tools/call" {
		resp.Error = &responseError{Code: -32601, Message: "method not found: " + req.Method}
		return resp
	}
	switch req.Params.Name {
	case "echo":
		resp.Result = req.Params.Arguments
	case "sleep":
		ms, _ := req.Params.Arguments["duration_ms"].(float64)
		time.Sleep(time.Duration(ms) * time.Millisecond)
		resp.Result = map[string]interface{}{"slept_ms": ms}
	case "fail":
		message := "requested failure"
		if m, ok := req.Params.Arguments["message"].(string); ok && m != "" {
			message = m
		}
		resp.Error = &responseError{Code: -32000, Message: message}
	default:
		resp.Error = &responseError{Code: -32601, Message: "unknown tool: " + req.Params.Name}
	}
	return resp
}
