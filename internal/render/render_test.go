package render

import (
	"strings"
	"testing"

	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/defaults"
	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/pipeline"
)

func TestCostTable(t *testing.T) {
	out := CostTable(cost.Estimate(cost.Params{}))
	for _, want := range []string{"Pre-Production", "Veo 3.1 (Video Generation - 75% Coverage)", "4050", "600000", "$324.00", "$338.08"} {
		if !strings.Contains(out, want) {
			t.Fatalf("cost table missing %q:\n%s", want, out)
		}
	}
}

func TestProgress(t *testing.T) {
	out := Progress(pipeline.Event{Index: 3, Kind: pipeline.EventInfo, Message: "Configuring Agent: Editor (FFmpeg)..."})
	if !strings.Contains(out, "[3/6]") || !strings.Contains(out, "Configuring Agent: Editor (FFmpeg)...") {
		t.Fatalf("Progress = %q", out)
	}
}

func TestBlueprint(t *testing.T) {
	tbl := defaults.Default()
	bp := &model.MasterBlueprint{
		Title:        "Storm Giants",
		Logline:      "A reverent exploration of Jupiter.",
		SeriesBible:  tbl.Bible("Jupiter"),
		Agents:       []model.AgentPersona{tbl.PersonaFor("Editor (FFmpeg)")},
		Workflow:     tbl.Stages(),
		Orchestrator: tbl.OrchestratorConfig(),
		Budget:       cost.Estimate(cost.Params{}),
	}
	out := Blueprint(bp)
	for _, want := range []string{"Storm Giants", "Editor (FFmpeg)", "Final Render", "Auteur-OS", "SIGUSR1 -> /signal/flush", "$338.08"} {
		if !strings.Contains(out, want) {
			t.Fatalf("blueprint view missing %q", want)
		}
	}
}
