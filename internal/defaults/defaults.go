// Package defaults holds the step fallback values and the static platform
// constants in one embedded YAML table.
package defaults

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soppliger/auteur/internal/model"
)

//go:embed defaults.yaml
var embedded []byte

// Table is the decoded defaults document. Accessors return copies.
type Table struct {
	Version      int                      `yaml:"version"`
	SeriesBible  model.SeriesBible        `yaml:"seriesBible"`
	Persona      model.AgentPersona       `yaml:"persona"`
	Workflow     []model.ProductionStage  `yaml:"workflow"`
	Orchestrator model.OrchestratorConfig `yaml:"orchestrator"`
	Artifacts    model.ExecutionArtifacts `yaml:"artifacts"`
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("defaults: embedded table: %v", err))
	}
	return t
}

// Load reads the table from path, or returns the embedded table when path
// is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("defaults: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a defaults document.
func Parse(data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("defaults: document is empty")
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("defaults: decode: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	if t.Version != 1 {
		return fmt.Errorf("defaults: unsupported version %d", t.Version)
	}
	if t.SeriesBible.VisualLanguage == "" || t.SeriesBible.NarrativeTone == "" {
		return fmt.Errorf("defaults: seriesBible needs visualLanguage and narrativeTone")
	}
	if t.Persona.Model == "" {
		return fmt.Errorf("defaults: persona.model is required")
	}
	if len(t.Workflow) == 0 {
		return fmt.Errorf("defaults: workflow is empty")
	}
	for i, s := range t.Workflow {
		if s.Name == "" || s.AgentRole == "" {
			return fmt.Errorf("defaults: workflow[%d] needs name and agentRole", i)
		}
	}
	if t.Orchestrator.SystemName == "" {
		return fmt.Errorf("defaults: orchestrator.systemName is required")
	}
	a := t.Artifacts
	if a.DockerCompose == "" || a.BootScript == "" || a.Readme == "" {
		return fmt.Errorf("defaults: all three artifacts are required")
	}
	return nil
}

// Bible returns the fallback series bible for topic.
func (t *Table) Bible(topic string) model.SeriesBible {
	b := t.SeriesBible
	b.SeriesTitle = strings.ReplaceAll(b.SeriesTitle, "{topic}", topic)
	b.RecurringMotifs = append([]string(nil), b.RecurringMotifs...)
	return b
}

// PersonaFor returns the fallback persona with role substituted.
func (t *Table) PersonaFor(role string) model.AgentPersona {
	p := t.Persona
	sub := func(s string) string { return strings.ReplaceAll(s, "{role}", role) }
	p.Role = sub(p.Role)
	p.SystemPrompt = sub(p.SystemPrompt)
	p.Description = sub(p.Description)
	p.Tools = append([]string{}, p.Tools...)
	return p
}

// Stages returns the fallback workflow numbered from 1 with pending status.
func (t *Table) Stages() []model.ProductionStage {
	out := make([]model.ProductionStage, len(t.Workflow))
	for i, s := range t.Workflow {
		s.Step = i + 1
		s.Status = model.StagePending
		out[i] = s
	}
	return out
}

// OrchestratorConfig returns the static orchestrator configuration.
func (t *Table) OrchestratorConfig() model.OrchestratorConfig {
	o := t.Orchestrator
	o.StorageMounts = append([]string(nil), o.StorageMounts...)
	return o
}

// ExecutionArtifacts returns the fallback text artifacts.
func (t *Table) ExecutionArtifacts() model.ExecutionArtifacts {
	return t.Artifacts
}
