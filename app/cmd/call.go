package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/toolgate/transport"
)

// newCallCmd performs a single tool invocation, or a batch of invocations
// over one live stdio session.
func newCallCmd() *cobra.Command {
	var (
		timeout   time.Duration
		batchFile string
	)
	cmd := &cobra.Command{
		Use:   "call [server] [tool] [json-args]",
		Short: "Invoke one tool on a capability server",
		Args:  cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchFile != "" {
				return runBatch(cmd, args[0], batchFile)
			}
			if len(args) < 2 {
				return fmt.Errorf("tool name required")
			}
			params := map[string]interface{}{}
			if len(args) == 3 {
				if err := json.Unmarshal([]byte(args[2]), &params); err != nil {
					return fmt.Errorf("parse arguments: %w", err)
				}
			}
			selector, _, closeTelemetry := buildSelector(cmd.Context(), globalCfg)
			defer closeTelemetry()
			result := selector.Invoke(cmd.Context(), transport.ToolCall{
				Server:  args[0],
				Tool:    args[1],
				Params:  params,
				Timeout: timeout,
			})
			printResult(cmd, result)
			fmt.Fprintln(cmd.OutOrStdout(), renderMetrics(selector.Metrics()))
			if !result.Success {
				return fmt.Errorf("call failed")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-call timeout (default 30s)")
	cmd.Flags().StringVar(&batchFile, "batch", "", "File of JSON lines {\"tool\":..., \"arguments\":...} executed over one live session")
	return cmd
}

// runBatch keeps one capability server alive and replays every request line
// against it, avoiding a fresh spawn per call.
func runBatch(cmd *cobra.Command, server, batchFile string) error {
	path, err := buildResolver(globalCfg).Resolve(server)
	if err != nil {
		return err
	}
	session, err := transport.NewStdioSession(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer session.Close()

	f, err := os.Open(batchFile)
	if err != nil {
		return err
	}
	defer f.Close()

	failures := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req struct {
			Tool      string                 `json:"tool"`
			Arguments map[string]interface{} `json:"arguments"`
		}
		if err := json.Unmarshal(line, &req); err != nil {
			return fmt.Errorf("parse batch line: %w", err)
		}
		result, err := session.Call(cmd.Context(), req.Tool, req.Arguments)
		if err != nil {
			return err
		}
		printResult(cmd, result)
		if !result.Success {
			failures++
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d batch call(s) failed", failures)
	}
	return nil
}

func printResult(cmd *cobra.Command, result *transport.ToolResult) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", result)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}
