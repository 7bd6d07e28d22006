// Package pipeline runs ordered sequences of tool calls with dependency
// ordering and partial-failure tolerance. A Pipeline continues past failed
// steps so later, independent steps still produce output; a Workflow refines
// that with per-step conditions over a shared accumulating result bag.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lexcodex/toolgate/telemetry"
	"github.com/lexcodex/toolgate/transport"
)

// Invoker performs one tool call. transport.TransportSelector satisfies it;
// tests substitute fakes.
type Invoker interface {
	Invoke(ctx context.Context, call transport.ToolCall) *transport.ToolResult
}

// SkipReason tags why a step did not execute. Dependency skips are recorded
// as pipeline errors; condition skips are silent. The two must stay distinct.
type SkipReason string

const (
	// SkipNone marks an executed step.
	SkipNone SkipReason = ""
	// SkipMissingDependency marks a step whose upstream dependency never
	// produced a successful result. Counted as an error.
	SkipMissingDependency SkipReason = "missing_dependency"
	// SkipCondition marks a workflow step whose condition evaluated false.
	// Not an error.
	SkipCondition SkipReason = "condition_false"
)

// Step is one named tool call with optional upstream dependencies. Names are
// a caller contract: they must be unique within one pipeline, and redeclaring
// a name silently shadows earlier results during dependency checks.
type Step struct {
	Name      string
	Call      transport.ToolCall
	DependsOn []string
}

// StepOutcome records one step's result and timing, appended in execution
// order.
type StepOutcome struct {
	Name     string                `json:"name"`
	Result   *transport.ToolResult `json:"result,omitempty"`
	Duration time.Duration         `json:"duration"`
	Skip     SkipReason            `json:"skip,omitempty"`
}

// Run is the structured report of one pipeline execution. Success is true
// exactly when Errors is empty.
type Run struct {
	Steps         []StepOutcome `json:"steps"`
	TotalDuration time.Duration `json:"total_duration"`
	Success       bool          `json:"success"`
	Errors        []string      `json:"errors"`
}

// Pipeline executes declared steps in order, skipping steps whose
// dependencies failed and converting every lower-layer failure into a
// recorded error string. Execute never aborts early: each declared step is
// attempted or explicitly skipped exactly once.
type Pipeline struct {
	invoker   Invoker
	telemetry telemetry.Sink
	steps     []Step
}

// NewPipeline builds an empty pipeline over the invoker. A nil invoker is
// programmer misuse and panics.
func NewPipeline(invoker Invoker) *Pipeline {
	if invoker == nil {
		panic("pipeline: nil invoker")
	}
	return &Pipeline{invoker: invoker, telemetry: telemetry.Nop{}}
}

// SetTelemetry wires an event sink.
func (p *Pipeline) SetTelemetry(sink telemetry.Sink) *Pipeline {
	if sink != nil {
		p.telemetry = sink
	}
	return p
}

// AddStep appends a step. Steps execute in declaration order.
func (p *Pipeline) AddStep(step Step) *Pipeline {
	p.steps = append(p.steps, step)
	return p
}

// Execute runs every declared step and returns the structured report. The
// only error it returns is misuse (an empty step list); tool and transport
// failures are folded into the run report.
func (p *Pipeline) Execute(ctx context.Context) (*Run, error) {
	if len(p.steps) == 0 {
		return nil, errors.New("pipeline has no steps")
	}
	run := &Run{Errors: []string{}}
	succeeded := make(map[string]*transport.ToolResult, len(p.steps))
	start := time.Now()
	p.telemetry.Emit(telemetry.Event{Type: telemetry.EventRunStart, Timestamp: start.UTC()})

	for _, step := range p.steps {
		if missing := missingDependencies(step.DependsOn, succeeded); len(missing) > 0 {
			run.Errors = append(run.Errors,
				fmt.Sprintf("Step '%s' missing dependencies: %s", step.Name, strings.Join(missing, ", ")))
			run.Steps = append(run.Steps, StepOutcome{Name: step.Name, Skip: SkipMissingDependency})
			p.emitSkip(step.Name, SkipMissingDependency)
			continue
		}
		outcome := p.runStep(ctx, step)
		run.Steps = append(run.Steps, outcome)
		if outcome.Result.Success {
			succeeded[step.Name] = outcome.Result
		} else {
			run.Errors = append(run.Errors,
				fmt.Sprintf("Step '%s' failed: %s", step.Name, outcome.Result.Error))
		}
	}

	run.TotalDuration = time.Since(start)
	run.Success = len(run.Errors) == 0
	p.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventRunFinish,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]interface{}{
			"success":     run.Success,
			"errors":      len(run.Errors),
			"duration_ms": run.TotalDuration.Milliseconds(),
		},
	})
	return run, nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step) StepOutcome {
	stepStart := time.Now()
	p.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventStepStart,
		Step:      step.Name,
		Server:    step.Call.Server,
		Tool:      step.Call.Tool,
		Timestamp: stepStart.UTC(),
	})
	result := p.invoker.Invoke(ctx, step.Call)
	if result == nil {
		result = transport.FailedResult(errors.New("invoker returned no result"))
	}
	elapsed := time.Since(stepStart)
	p.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventStepFinish,
		Step:      step.Name,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]interface{}{
			"success":     result.Success,
			"duration_ms": elapsed.Milliseconds(),
		},
	})
	return StepOutcome{Name: step.Name, Result: result, Duration: elapsed}
}

func (p *Pipeline) emitSkip(step string, reason SkipReason) {
	p.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventStepSkip,
		Step:      step,
		Message:   string(reason),
		Timestamp: time.Now().UTC(),
	})
}

// missingDependencies returns the declared dependencies that have no recorded
// successful result yet.
func missingDependencies(deps []string, succeeded map[string]*transport.ToolResult) []string {
	var missing []string
	for _, dep := range deps {
		if _, ok := succeeded[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing
}
