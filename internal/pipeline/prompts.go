package pipeline

import (
	"fmt"
	"strings"

	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/model"
)

func biblePrompt(topic, style string) string {
	return fmt.Sprintf(`Create a "Series Bible" for an automated, AI-generated documentary series.
Topic: %s
Style: %s

The goal is a repeatable, modular system where a Director AI can maintain style across multiple episodes and films.
Focus on hyper-realistic narrators combined with high-end CGI.

Return JSON with:
- seriesTitle: creative title for the series
- visualLanguage: specific prompts and keywords for video and image models (lighting, lens choice, color grading)
- narrativeTone: the voice and personality of the AI narrators
- recurringMotifs: list of exactly 3 visual or audio elements present in every episode
- episodicFormat: structure of a single episode (e.g. Cold Open -> Title -> Act 1...)`, topic, style)
}

func orchestratorPrompt(bible model.SeriesBible) string {
	return fmt.Sprintf(`Design the operating system that runs a zero-touch film production swarm for the series %q.
Agents are long-running containers. Each agent monitors its own context window and, at 40%% usage,
saves a JSON "Memory Crystal" to shared storage, terminates and is respawned from the crystal.

Return JSON with:
- systemName, architecture, healthCheckPort
- contextPolicy: monitorFrequency, signalProtocol, crystalSchema, restorationProcess, errorHandling
- storageMounts: list of mount paths for crystals, assets and renders`, bible.SeriesTitle)
}

func personaPrompt(role string, bible model.SeriesBible) string {
	return fmt.Sprintf(`Design an autonomous AI agent persona for the role of %s for the documentary series %q.
This agent is part of a "Zero-Touch" automated film production swarm.

CRITICAL REQUIREMENT - MEMORY MANAGEMENT:
Devise a formalized "Context Preservation Protocol" for this agent.
The agent is a long-running process and MUST monitor its own context window usage.
When token usage exceeds 40%% of the window, the agent must:
1. Compress its entire session state (decisions, variables, done/todo lists) into a JSON "Memory Crystal".
2. Save the crystal to the shared file system.
3. Trigger self-termination and request a fresh instance seeded with the crystal.

The agent MUST adhere to this Series Bible:
- Visual Language: %s
- Narrative Tone: %s

Return JSON with:
- role: string
- model: the model best suited to the task
- temperature: number between 0.0 and 1.0
- systemPrompt: a rigorous expert system prompt that states the memory protocol explicitly
- tools: array of tool identifiers
- description: precise description of responsibilities
- contextConfig: windowSize (2000000 for Pro models, 1000000 for Flash models), threshold (MUST be 0.4), migrationProcedure`,
		role, bible.SeriesTitle, bible.VisualLanguage, bible.NarrativeTone)
}

func workflowPrompt(bible model.SeriesBible, roles []string) string {
	return fmt.Sprintf(`Outline a strict, step-by-step automated workflow to produce a feature-length documentary based on the Series Bible %q.
The workflow must go from concept to final render without human intervention.
Episode format: %s

Identify 6 key sequential stages. Assign each to one of: %s.

Return a JSON array of objects with:
- step: integer
- name: string
- agentRole: string (who does this)
- description: string (technical description of the process, including data handoffs)`,
		bible.SeriesTitle, bible.EpisodicFormat, strings.Join(roles, ", "))
}

func costPrompt(bible model.SeriesBible, runtimeMinutes, sceneCount int) string {
	return fmt.Sprintf(`Estimate the production cost in USD for the %d-minute documentary %q with about %d scenes.
Return exactly %d rows in this order, one per category: %s.
The rows cover reasoning tokens, agent coordination tokens, video generation seconds, still images, audio and infrastructure.

Return a JSON array of rows with category, description, unitCost, quantity and total (unitCost * quantity).`,
		runtimeMinutes, bible.SeriesTitle, sceneCount, len(cost.Categories), strings.Join(cost.Categories, ", "))
}

func crewSummary(agents []model.AgentPersona) string {
	var b strings.Builder
	for _, a := range agents {
		fmt.Fprintf(&b, "- %s (model %s, tools: %s): %s\n", a.Role, a.Model, strings.Join(a.Tools, ", "), a.Description)
	}
	return b.String()
}

func platformSummary(o model.OrchestratorConfig) string {
	return fmt.Sprintf(`System: %s (%s)
Health check port: %d
Context policy: monitor %s, signal %s, crystal schema %s, restore by %s, errors: %s
Storage mounts: %s`,
		o.SystemName, o.Architecture, o.HealthCheckPort,
		o.ContextPolicy.MonitorFrequency, o.ContextPolicy.SignalProtocol, o.ContextPolicy.CrystalSchema,
		o.ContextPolicy.RestorationProcess, o.ContextPolicy.ErrorHandling,
		strings.Join(o.StorageMounts, ", "))
}

// artifactPrompt builds the request for one execution artifact.
func artifactPrompt(name string, o model.OrchestratorConfig, agents []model.AgentPersona) string {
	var ask string
	switch name {
	case model.ArtifactDockerCompose:
		ask = "Write docker-compose.yml with one service per agent plus the orchestrator, the health check port exposed and every storage mount attached."
	case model.ArtifactBootScript:
		ask = "Write boot_orchestrator.py, the Python entry point that starts each agent container, watches context usage reports, " +
			"handles the flush signal by saving a memory crystal and respawns the agent from it."
	default:
		ask = "Write README.md explaining how to boot the swarm, where crystals and renders are stored and how context migration works."
	}
	return fmt.Sprintf("%s\n\nPlatform:\n%s\n\nCrew:\n%s", ask, platformSummary(o), crewSummary(agents))
}
