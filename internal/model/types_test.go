package model

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"
)

func keys(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func TestJSONFieldNames(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want string
	}{
		{"blueprint", MasterBlueprint{}, "agents,bootScript,budget,dockerCompose,logline,orchestrator,readme,runtime,seriesBible,style,title,workflow"},
		{"bible", SeriesBible{}, "episodicFormat,narrativeTone,recurringMotifs,seriesTitle,visualLanguage"},
		{"persona", AgentPersona{}, "contextConfig,description,model,role,systemPrompt,temperature,tools"},
		{"context", ContextConfig{}, "migrationProcedure,threshold,windowSize"},
		{"stage", ProductionStage{}, "agentRole,description,name,status,step"},
		{"orchestrator", OrchestratorConfig{}, "architecture,contextPolicy,healthCheckPort,storageMounts,systemName"},
		{"policy", ContextLifecyclePolicy{}, "crystalSchema,errorHandling,monitorFrequency,restorationProcess,signalProtocol"},
		{"cost", CostItem{}, "category,description,quantity,total,unitCost"},
	}
	for _, tc := range cases {
		if got := keys(t, tc.v); got != tc.want {
			t.Fatalf("%s keys = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestArtifactText(t *testing.T) {
	bp := &MasterBlueprint{DockerCompose: "compose", BootScript: "boot", Readme: "readme"}
	for name, want := range map[string]string{
		ArtifactDockerCompose: "compose",
		ArtifactBootScript:    "boot",
		ArtifactReadme:        "readme",
	} {
		if got, ok := bp.ArtifactText(name); !ok || got != want {
			t.Fatalf("ArtifactText(%s) = %q, %v", name, got, ok)
		}
	}
	if _, ok := bp.ArtifactText(ArtifactBlueprint); ok {
		t.Fatal("blueprint.json is not a text artifact")
	}
}
