package pipeline

import (
	"github.com/cloudwego/eino/schema"

	"github.com/soppliger/auteur/internal/generate"
)

// Step names, in execution order.
const (
	StepSeriesBible  = "series_bible"
	StepOrchestrator = "orchestrator_config"
	StepAgents       = "agent_personas"
	StepWorkflow     = "workflow"
	StepArtifacts    = "execution_artifacts"
	StepCost         = "cost_estimate"
)

// Steps lists every step name in the order Run executes them.
var Steps = []string{StepSeriesBible, StepOrchestrator, StepAgents, StepWorkflow, StepArtifacts, StepCost}

// Roles is the fixed crew. One persona is generated per role, in order.
var Roles = []string{
	"Director/Showrunner",
	"Lead Screenwriter",
	"Cinematographer (Veo)",
	"Sound & Narrator Designer",
	"Editor (FFmpeg)",
}

// progress texts per step
var stepMessages = map[string]string{
	StepSeriesBible:  "Establish Series DNA (Series Bible)...",
	StepOrchestrator: "Booting Auteur-OS Kernel...",
	StepAgents:       "Recruiting Modular AI Crew...",
	StepWorkflow:     "Designing Production Pipeline...",
	StepArtifacts:    "Compiling Execution Artifacts...",
	StepCost:         "Optimizing Cost Schedule...",
}

// StepInfo describes one step for clients.
type StepInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Describe lists the steps in execution order.
func Describe() []StepInfo {
	out := make([]StepInfo, len(Steps))
	for i, name := range Steps {
		out[i] = StepInfo{Index: i + 1, Name: name, Message: stepMessages[name]}
	}
	return out
}

// Response shapes.
var (
	bibleShape = generate.Object("series bible", map[string]*schema.ParameterInfo{
		"seriesTitle":     generate.Str("creative title for the series"),
		"visualLanguage":  generate.Str("prompt keywords for lighting, lens choice and color grading"),
		"narrativeTone":   generate.Str("voice and personality of the narrators"),
		"recurringMotifs": generate.Strs("three visual or audio elements present in every episode"),
		"episodicFormat":  generate.Str("structure of a single episode"),
	})

	contextConfigShape = generate.Object("context window policy", map[string]*schema.ParameterInfo{
		"windowSize":         generate.Int("context window in tokens"),
		"threshold":          generate.Num("flush threshold as a fraction of the window"),
		"migrationProcedure": generate.Str("protocol name and summary of the save and restart steps"),
	})

	personaShape = generate.Object("agent persona", map[string]*schema.ParameterInfo{
		"role":          generate.Str("role name"),
		"model":         generate.Str("model identifier best suited to the role"),
		"temperature":   generate.Num("sampling temperature between 0 and 1"),
		"systemPrompt":  generate.Str("expert system prompt including the memory protocol"),
		"tools":         generate.Strs("tool identifiers"),
		"description":   generate.Str("responsibilities"),
		"contextConfig": contextConfigShape,
	})

	workflowShape = generate.ArrayOf("production stages in execution order",
		generate.Object("production stage", map[string]*schema.ParameterInfo{
			"step":        optional(generate.Int("1-based stage number")),
			"name":        generate.Str("stage name"),
			"agentRole":   generate.Str("responsible role"),
			"description": generate.Str("technical description including data handoffs"),
		}))

	orchestratorShape = generate.Object("orchestrator configuration", map[string]*schema.ParameterInfo{
		"systemName":      generate.Str("operating system name"),
		"architecture":    generate.Str("architecture label"),
		"healthCheckPort": generate.Int("health check port"),
		"contextPolicy": generate.Object("context lifecycle policy", map[string]*schema.ParameterInfo{
			"monitorFrequency":   generate.Str("how often agents report context usage"),
			"signalProtocol":     generate.Str("signal sent when the threshold is crossed"),
			"crystalSchema":      generate.Str("memory crystal schema name"),
			"restorationProcess": generate.Str("how a respawned agent restores state"),
			"errorHandling":      generate.Str("error handling strategy"),
		}),
		"storageMounts": generate.Strs("storage mount paths"),
	})

	costShape = generate.ArrayOf("cost rows",
		generate.Object("cost row", map[string]*schema.ParameterInfo{
			"category":    generate.Str("cost category"),
			"description": generate.Str("line item"),
			"unitCost":    generate.Num("unit cost in USD"),
			"quantity":    generate.Num("quantity"),
			"total":       generate.Num("unitCost times quantity"),
		}))
)

// optional clears Required; the field is accepted when absent.
func optional(p *schema.ParameterInfo) *schema.ParameterInfo {
	p.Required = false
	return p
}
