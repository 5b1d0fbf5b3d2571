package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soppliger/auteur/internal/generate"
	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/retry"
)

// fakeGenerator returns canned values per step. fail, when set, is asked
// first and may return an error for the n-th call (0-based) of a step.
type fakeGenerator struct {
	fail     func(step string, n int) error
	stages   []model.ProductionStage
	costRows []model.CostItem

	mu    sync.Mutex
	calls map[string]int
	order []string
}

func (g *fakeGenerator) record(step string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	n := g.calls[step]
	g.calls[step]++
	g.order = append(g.order, step)
	return n
}

func (g *fakeGenerator) count(prefix string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for step, n := range g.calls {
		if strings.HasPrefix(step, prefix) {
			total += n
		}
	}
	return total
}

func (g *fakeGenerator) Object(ctx context.Context, req generate.Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n := g.record(req.Step)
	if g.fail != nil {
		if err := g.fail(req.Step, n); err != nil {
			return err
		}
	}
	switch v := out.(type) {
	case *model.SeriesBible:
		*v = model.SeriesBible{
			SeriesTitle:     "Storm Giants",
			VisualLanguage:  "anamorphic lenses, teal and amber grading",
			NarrativeTone:   "Calm and Awestruck",
			RecurringMotifs: []string{"storm bands", "orbital flybys", "data overlays"},
			EpisodicFormat:  "Cold Open -> Title -> Act 1 -> Act 2 -> Act 3",
		}
	case *model.AgentPersona:
		*v = model.AgentPersona{
			Role:         "ignored",
			Model:        "gemini-3-pro-preview",
			Temperature:  0.4,
			SystemPrompt: "Flush at 40%.",
			Tools:        []string{"search"},
			Description:  "generated " + req.Step,
			ContextConfig: model.ContextConfig{
				WindowSize: 2000000, Threshold: 0.4, MigrationProcedure: "Crystal flush",
			},
		}
	case *[]model.ProductionStage:
		if g.stages != nil {
			*v = append([]model.ProductionStage(nil), g.stages...)
			break
		}
		*v = []model.ProductionStage{
			{Step: 1, Name: "Research", AgentRole: "Lead Screenwriter", Description: "script"},
			{Step: 2, Name: "Shoot", AgentRole: "Cinematographer (Veo)", Description: "plates"},
			{Step: 3, Name: "Cut", AgentRole: "Editor (FFmpeg)", Description: "edit"},
		}
	case *model.OrchestratorConfig:
		*v = model.OrchestratorConfig{SystemName: "Generated-OS", Architecture: "k8s", HealthCheckPort: 9090}
	case *[]model.CostItem:
		*v = append([]model.CostItem(nil), g.costRows...)
	default:
		return fmt.Errorf("unexpected output type %T", out)
	}
	return nil
}

func (g *fakeGenerator) Text(ctx context.Context, req generate.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n := g.record(req.Step)
	if g.fail != nil {
		if err := g.fail(req.Step, n); err != nil {
			return "", err
		}
	}
	return "content of " + req.Step, nil
}

type instantTimer struct{ c chan time.Time }

func (t *instantTimer) Start(time.Duration) {
	select {
	case t.c <- time.Now():
	default:
	}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func testRetrier(maxRetries int) *retry.Retrier {
	return &retry.Retrier{
		Policy: retry.Policy{MaxRetries: maxRetries, BaseDelay: time.Millisecond},
		Timer:  &instantTimer{c: make(chan time.Time, 1)},
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Report(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds(kind EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
