package telemetry

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// EventType categorizes telemetry events.
type EventType string

const (
	EventTransportSelect EventType = "transport_select"
	EventInvokeStart     EventType = "invoke_start"
	EventInvokeFinish    EventType = "invoke_finish"
	EventRunStart        EventType = "run_start"
	EventRunFinish       EventType = "run_finish"
	EventStepStart       EventType = "step_start"
	EventStepFinish      EventType = "step_finish"
	EventStepSkip        EventType = "step_skip"
	EventWarning         EventType = "warning"
)

// Event captures structured telemetry data emitted by the transport and
// orchestration layers.
type Event struct {
	Type      EventType              `json:"type"`
	Step      string                 `json:"step,omitempty"`
	Server    string                 `json:"server,omitempty"`
	Tool      string                 `json:"tool,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Sink receives execution traces. Production deployments can implement
// exporters here, while tests typically swap in lightweight recorders.
type Sink interface {
	Emit(event Event)
}

// Multiplex broadcasts events to multiple sinks.
type Multiplex struct {
	Sinks []Sink
}

// Emit forwards the event to all registered sinks.
func (m Multiplex) Emit(event Event) {
	for _, s := range m.Sinks {
		s.Emit(event)
	}
}

// JSONFileSink writes events as newline-delimited JSON to a file so external
// tools can tail and process the stream.
type JSONFileSink struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewJSONFileSink opens (or creates) the log file.
func NewJSONFileSink(path string) (*JSONFileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONFileSink{file: f, enc: json.NewEncoder(f)}, nil
}

// Emit writes the JSON record.
func (j *JSONFileSink) Emit(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc != nil {
		_ = j.enc.Encode(event)
	}
}

// Close releases the file handle.
func (j *JSONFileSink) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}

// LogSink emits events via the standard logger.
type LogSink struct {
	Logger *log.Logger
}

// Emit logs the event.
func (t LogSink) Emit(event Event) {
	logger := t.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[%s] step=%s server=%s tool=%s meta=%v msg=%s\n",
		event.Type, event.Step, event.Server, event.Tool, event.Metadata, event.Message)
}

// Nop discards every event.
type Nop struct{}

// Emit implements Sink.
func (Nop) Emit(Event) {}
