package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lexcodex/toolgate/transport"
)

// fakeInvoker scripts per-tool behavior and records every call it receives.
type fakeInvoker struct {
	mu       sync.Mutex
	calls    []transport.ToolCall
	failures map[string]string        // tool name -> error message
	values   map[string]interface{}   // tool name -> result value
	delays   map[string]time.Duration // tool name -> simulated work
}

func newFakeInvoker() *fakeInvoker {
	return &fakeInvoker{
		failures: map[string]string{},
		values:   map[string]interface{}{},
		delays:   map[string]time.Duration{},
	}
}

func (f *fakeInvoker) Invoke(ctx context.Context, call transport.ToolCall) *transport.ToolResult {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if d, ok := f.delays[call.Tool]; ok {
		time.Sleep(d)
	}
	if msg, ok := f.failures[call.Tool]; ok {
		return &transport.ToolResult{Success: false, Error: msg}
	}
	return &transport.ToolResult{Success: true, Value: f.values[call.Tool]}
}

func (f *fakeInvoker) invoked(tool string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Tool == tool {
			return true
		}
	}
	return false
}

func TestPipelineAllStepsSucceed(t *testing.T) {
	invoker := newFakeInvoker()
	invoker.values["review"] = "looks good"

	run, err := NewPipeline(invoker).
		AddStep(Step{Name: "review", Call: transport.ToolCall{Server: "code-review", Tool: "review"}}).
		AddStep(Step{Name: "summarize", Call: transport.ToolCall{Server: "code-review", Tool: "summarize"}, DependsOn: []string{"review"}}).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !run.Success || len(run.Errors) != 0 {
		t.Fatalf("expected clean run, got %+v", run)
	}
	if len(run.Steps) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(run.Steps))
	}
	if run.Steps[0].Result.Value != "looks good" {
		t.Fatalf("unexpected value: %v", run.Steps[0].Result.Value)
	}
}

func TestPipelineFailedDependencySkipsDownstream(t *testing.T) {
	invoker := newFakeInvoker()
	invoker.failures["review"] = "linter crashed"

	run, err := NewPipeline(invoker).
		AddStep(Step{Name: "review", Call: transport.ToolCall{Server: "code-review", Tool: "review"}}).
		AddStep(Step{Name: "summarize", Call: transport.ToolCall{Server: "code-review", Tool: "summarize"}, DependsOn: []string{"review"}}).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if run.Success {
		t.Fatalf("run must not be successful")
	}
	if invoker.invoked("summarize") {
		t.Fatalf("skipped step must never reach the invoker")
	}
	if len(run.Errors) != 2 {
		t.Fatalf("expected one failure error and one skip error, got %v", run.Errors)
	}
	if !strings.Contains(run.Errors[0], "Step 'review' failed") {
		t.Fatalf("unexpected first error: %q", run.Errors[0])
	}
	if !strings.Contains(run.Errors[1], "Step 'summarize' missing dependencies: review") {
		t.Fatalf("unexpected second error: %q", run.Errors[1])
	}
	if run.Steps[1].Skip != SkipMissingDependency {
		t.Fatalf("expected missing-dependency skip, got %q", run.Steps[1].Skip)
	}
}

func TestPipelineContinuesPastFailure(t *testing.T) {
	invoker := newFakeInvoker()
	invoker.failures["scan"] = "scanner offline"

	run, err := NewPipeline(invoker).
		AddStep(Step{Name: "scan", Call: transport.ToolCall{Server: "security-scanner", Tool: "scan"}}).
		AddStep(Step{Name: "docs", Call: transport.ToolCall{Server: "doc-gen", Tool: "generate"}}).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !invoker.invoked("generate") {
		t.Fatalf("independent step must still run after an earlier failure")
	}
	if run.Success || len(run.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", run.Errors)
	}
}

func TestPipelineTimingAccumulates(t *testing.T) {
	invoker := newFakeInvoker()
	invoker.delays["review"] = 10 * time.Millisecond
	invoker.delays["test"] = 20 * time.Millisecond

	run, err := NewPipeline(invoker).
		AddStep(Step{Name: "review", Call: transport.ToolCall{Server: "code-review", Tool: "review"}}).
		AddStep(Step{Name: "test", Call: transport.ToolCall{Server: "test-runner", Tool: "test"}}).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if run.Steps[0].Duration < 10*time.Millisecond {
		t.Fatalf("review duration too small: %s", run.Steps[0].Duration)
	}
	if run.Steps[1].Duration < 20*time.Millisecond {
		t.Fatalf("test duration too small: %s", run.Steps[1].Duration)
	}
	if run.TotalDuration < run.Steps[0].Duration+run.Steps[1].Duration {
		t.Fatalf("total %s below sum of steps", run.TotalDuration)
	}
}

func TestPipelineEmptyIsMisuse(t *testing.T) {
	if _, err := NewPipeline(newFakeInvoker()).Execute(context.Background()); err == nil {
		t.Fatalf("expected error for empty pipeline")
	}
}

func TestPipelineNilInvokerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil invoker")
		}
	}()
	NewPipeline(nil)
}
