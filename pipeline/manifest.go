package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lexcodex/toolgate/transport"
)

// Manifest declares a named pipeline in YAML so runs are repeatable without
// code changes.
type Manifest struct {
	Name  string         `yaml:"name"`
	Steps []ManifestStep `yaml:"steps"`
}

// ManifestStep is the YAML form of one pipeline step.
type ManifestStep struct {
	Name      string                 `yaml:"name"`
	Server    string                 `yaml:"server"`
	Tool      string                 `yaml:"tool"`
	Params    map[string]interface{} `yaml:"params,omitempty"`
	DependsOn []string               `yaml:"depends_on,omitempty"`
	TimeoutMs int                    `yaml:"timeout_ms,omitempty"`
}

// LoadManifest reads and validates a pipeline manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates manifest YAML. Validation enforces the
// caller contracts Execute assumes: unique step names and dependencies that
// point at earlier steps.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse pipeline manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("pipeline manifest missing name")
	}
	if len(m.Steps) == 0 {
		return nil, fmt.Errorf("pipeline %q declares no steps", m.Name)
	}
	seen := make(map[string]struct{}, len(m.Steps))
	for i, step := range m.Steps {
		if step.Name == "" {
			return nil, fmt.Errorf("pipeline %q: step %d missing name", m.Name, i)
		}
		if step.Server == "" || step.Tool == "" {
			return nil, fmt.Errorf("pipeline %q: step %q missing server or tool", m.Name, step.Name)
		}
		if _, dup := seen[step.Name]; dup {
			return nil, fmt.Errorf("pipeline %q: duplicate step name %q", m.Name, step.Name)
		}
		for _, dep := range step.DependsOn {
			if _, ok := seen[dep]; !ok {
				return nil, fmt.Errorf("pipeline %q: step %q depends on undeclared step %q", m.Name, step.Name, dep)
			}
		}
		seen[step.Name] = struct{}{}
	}
	return &m, nil
}

// Pipeline materializes the manifest over an invoker.
func (m *Manifest) Pipeline(invoker Invoker) *Pipeline {
	p := NewPipeline(invoker)
	for _, step := range m.Steps {
		p.AddStep(Step{
			Name: step.Name,
			Call: transport.ToolCall{
				Server:  step.Server,
				Tool:    step.Tool,
				Params:  step.Params,
				Timeout: time.Duration(step.TimeoutMs) * time.Millisecond,
			},
			DependsOn: step.DependsOn,
		})
	}
	return p
}
