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

// Bag is the shared result accumulator passed to later steps' conditions and
// inputs. Keys are step names, values are the step results.
type Bag map[string]interface{}

// clone returns a shallow copy so conditions and dispatched calls cannot
// mutate the canonical bag.
func (b Bag) clone() Bag {
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Condition gates a workflow step on the results accumulated so far.
type Condition func(results Bag) bool

// WorkflowStep is a conditionally-executed named step. A false condition
// skips the step silently, which is distinct from a missing-dependency skip:
// that one is an error.
type WorkflowStep struct {
	Name      string
	Call      transport.ToolCall
	DependsOn []string
	Condition Condition
}

// StepTiming records per-step wall-clock performance for the run summary.
type StepTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Skip     SkipReason    `json:"skip,omitempty"`
}

// WorkflowRun summarizes one workflow execution.
type WorkflowRun struct {
	Name          string        `json:"name"`
	Results       Bag           `json:"results"`
	Success       bool          `json:"success"`
	Errors        []string      `json:"errors"`
	Performance   []StepTiming  `json:"performance"`
	TotalDuration time.Duration `json:"total_duration"`
}

// Workflow runs named steps in declaration order, gating each on its
// condition and accumulating results into a shared bag. By convention a later
// step receives the accumulated bag as its "context" argument alongside its
// declared params, not just its dependencies' output.
type Workflow struct {
	name      string
	invoker   Invoker
	telemetry telemetry.Sink
	steps     []WorkflowStep
}

// NewWorkflow builds an empty workflow. A nil invoker is programmer misuse
// and panics.
func NewWorkflow(name string, invoker Invoker) *Workflow {
	if invoker == nil {
		panic("workflow: nil invoker")
	}
	return &Workflow{name: name, invoker: invoker, telemetry: telemetry.Nop{}}
}

// SetTelemetry wires an event sink.
func (w *Workflow) SetTelemetry(sink telemetry.Sink) *Workflow {
	if sink != nil {
		w.telemetry = sink
	}
	return w
}

// AddStep appends a step. Steps execute in declaration order.
func (w *Workflow) AddStep(step WorkflowStep) *Workflow {
	w.steps = append(w.steps, step)
	return w
}

// Run executes the workflow and returns its summary. Only misuse (an empty
// step list) returns an error; everything else folds into the summary.
func (w *Workflow) Run(ctx context.Context) (*WorkflowRun, error) {
	if len(w.steps) == 0 {
		return nil, errors.New("workflow has no steps")
	}
	run := &WorkflowRun{Name: w.name, Results: Bag{}, Errors: []string{}}
	succeeded := make(map[string]struct{}, len(w.steps))
	start := time.Now()
	w.telemetry.Emit(telemetry.Event{Type: telemetry.EventRunStart, Message: w.name, Timestamp: start.UTC()})

	for _, step := range w.steps {
		if step.Condition != nil && !step.Condition(run.Results.clone()) {
			run.Performance = append(run.Performance, StepTiming{Name: step.Name, Skip: SkipCondition})
			w.emitSkip(step.Name, SkipCondition)
			continue
		}
		if missing := missingWorkflowDeps(step.DependsOn, succeeded); len(missing) > 0 {
			run.Errors = append(run.Errors,
				fmt.Sprintf("Step '%s' missing dependencies: %s", step.Name, strings.Join(missing, ", ")))
			run.Performance = append(run.Performance, StepTiming{Name: step.Name, Skip: SkipMissingDependency})
			w.emitSkip(step.Name, SkipMissingDependency)
			continue
		}

		stepStart := time.Now()
		w.telemetry.Emit(telemetry.Event{
			Type:      telemetry.EventStepStart,
			Step:      step.Name,
			Server:    step.Call.Server,
			Tool:      step.Call.Tool,
			Timestamp: stepStart.UTC(),
		})
		result := w.invoker.Invoke(ctx, w.buildCall(step, run.Results))
		if result == nil {
			result = transport.FailedResult(errors.New("invoker returned no result"))
		}
		elapsed := time.Since(stepStart)
		run.Performance = append(run.Performance, StepTiming{Name: step.Name, Duration: elapsed})
		w.telemetry.Emit(telemetry.Event{
			Type:      telemetry.EventStepFinish,
			Step:      step.Name,
			Timestamp: time.Now().UTC(),
			Metadata: map[string]interface{}{
				"success":     result.Success,
				"duration_ms": elapsed.Milliseconds(),
			},
		})
		if result.Success {
			run.Results[step.Name] = result.Value
			succeeded[step.Name] = struct{}{}
		} else {
			run.Errors = append(run.Errors,
				fmt.Sprintf("Step '%s' failed: %s", step.Name, result.Error))
		}
	}

	run.TotalDuration = time.Since(start)
	run.Success = len(run.Errors) == 0
	w.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventRunFinish,
		Message:   w.name,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]interface{}{
			"success":     run.Success,
			"errors":      len(run.Errors),
			"duration_ms": run.TotalDuration.Milliseconds(),
		},
	})
	return run, nil
}

// buildCall copies the step's call and attaches the accumulated bag as the
// "context" argument. The declared call itself is never mutated.
func (w *Workflow) buildCall(step WorkflowStep, bag Bag) transport.ToolCall {
	call := step.Call
	if len(bag) == 0 {
		return call
	}
	params := make(map[string]interface{}, len(call.Params)+1)
	for k, v := range call.Params {
		params[k] = v
	}
	params["context"] = map[string]interface{}(bag.clone())
	call.Params = params
	return call
}

func (w *Workflow) emitSkip(step string, reason SkipReason) {
	w.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventStepSkip,
		Step:      step,
		Message:   string(reason),
		Timestamp: time.Now().UTC(),
	})
}

func missingWorkflowDeps(deps []string, succeeded map[string]struct{}) []string {
	var missing []string
	for _, dep := range deps {
		if _, ok := succeeded[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing
}
