package transport

import (
	"context"
	"time"

	"github.com/lexcodex/toolgate/telemetry"
)

// Mode names the active transport.
type Mode string

const (
	// ModeGateway proxies every invocation through the shared gateway.
	ModeGateway Mode = "gateway"
	// ModeDirect spawns a fresh capability-server process per invocation.
	ModeDirect Mode = "direct"
)

// gatewayEfficiencyUnits is credited per gateway call: each one avoids a
// fresh process spawn and keeps tool schemas out of the caller's context.
const gatewayEfficiencyUnits = 1

// SelectorOptions tunes transport selection.
type SelectorOptions struct {
	// ProbeTimeout bounds the startup gateway health check.
	ProbeTimeout time.Duration
	// Telemetry receives selection and invocation events. Nil means silent.
	Telemetry telemetry.Sink
}

// TransportSelector exposes one uniform Invoke call and dispatches to either
// the gateway or direct process spawning. The transport is chosen once at
// construction and fixed for the lifetime of the instance; re-evaluating
// requires a new instance. This keeps step timing and metrics comparable
// within one pipeline run instead of flapping mid-session.
type TransportSelector struct {
	mode      Mode
	gateway   *GatewayClient
	invoker   *ProcessInvoker
	resolver  *BinaryResolver
	metrics   InvocationMetrics
	telemetry telemetry.Sink
}

// NewTransportSelector probes the gateway once and fixes the transport:
// gateway when reachable, direct otherwise. When a container runtime is
// present but the gateway is not reachable, a warning event is emitted as an
// operator hint before settling on direct.
func NewTransportSelector(ctx context.Context, probe *TransportProbe, gateway *GatewayClient, invoker *ProcessInvoker, resolver *BinaryResolver, opts SelectorOptions) *TransportSelector {
	sink := opts.Telemetry
	if sink == nil {
		sink = telemetry.Nop{}
	}
	s := &TransportSelector{
		mode:      ModeDirect,
		gateway:   gateway,
		invoker:   invoker,
		resolver:  resolver,
		telemetry: sink,
	}
	if gateway != nil && probe != nil && probe.CheckGateway(ctx, gateway.Endpoint(), opts.ProbeTimeout) {
		s.mode = ModeGateway
	} else if probe != nil && probe.CheckRuntimeAvailable(ctx) {
		s.telemetry.Emit(telemetry.Event{
			Type:      telemetry.EventWarning,
			Message:   "container runtime detected but gateway is not reachable; falling back to per-call process spawning",
			Timestamp: time.Now().UTC(),
		})
	}
	s.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventTransportSelect,
		Message:   string(s.mode),
		Timestamp: time.Now().UTC(),
	})
	return s
}

// Mode returns the transport fixed at construction.
func (s *TransportSelector) Mode() Mode { return s.mode }

// Metrics returns a snapshot of the invocation counters.
func (s *TransportSelector) Metrics() MetricsSnapshot { return s.metrics.Snapshot() }

// ResetMetrics zeroes the counters on explicit caller request.
func (s *TransportSelector) ResetMetrics() { s.metrics.Reset() }

// Invoke dispatches the call over the active transport. Invocation-layer
// failures fold into a failed ToolResult; callers never see raised errors for
// tool or transport trouble. Call count and duration are recorded regardless
// of outcome, since failed calls still consume time.
func (s *TransportSelector) Invoke(ctx context.Context, call ToolCall) *ToolResult {
	start := time.Now()
	s.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventInvokeStart,
		Server:    call.Server,
		Tool:      call.Tool,
		Timestamp: start.UTC(),
	})

	var result *ToolResult
	var units int64
	switch s.mode {
	case ModeGateway:
		result = s.gateway.CallTool(ctx, call)
		units = gatewayEfficiencyUnits
	default:
		result = s.invokeDirect(ctx, call)
	}

	elapsed := time.Since(start)
	s.metrics.Record(elapsed, units)
	s.telemetry.Emit(telemetry.Event{
		Type:      telemetry.EventInvokeFinish,
		Server:    call.Server,
		Tool:      call.Tool,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]interface{}{
			"success":     result.Success,
			"duration_ms": elapsed.Milliseconds(),
			"transport":   string(s.mode),
		},
	})
	return result
}

func (s *TransportSelector) invokeDirect(ctx context.Context, call ToolCall) *ToolResult {
	path, err := s.resolver.Resolve(call.Server)
	if err != nil {
		return FailedResult(err)
	}
	result, err := s.invoker.Invoke(ctx, path, call)
	if err != nil {
		return FailedResult(err)
	}
	return result
}
