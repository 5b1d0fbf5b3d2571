// Package service keeps finished blueprint runs in memory for the lifetime
// of the process.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/pipeline"
)

// Runner executes one pipeline run. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request, rep pipeline.Reporter) (*model.MasterBlueprint, error)
}

// Run is a finished generation.
type Run struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"createdAt"`
	Request   pipeline.Request       `json:"request"`
	Blueprint *model.MasterBlueprint `json:"blueprint"`
	Logs      []string               `json:"logs"`
}

// Summary is the list view of a Run.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Topic     string    `json:"topic"`
	Style     string    `json:"style"`
	Budget    float64   `json:"budget"` // rounded to cents
}

// BlueprintService runs pipelines and stores their results. Failed runs are
// not stored.
type BlueprintService struct {
	runner Runner
	now    func() time.Time

	mu   sync.RWMutex
	runs map[string]*Run
}

func NewBlueprintService(runner Runner) *BlueprintService {
	return &BlueprintService{
		runner: runner,
		now:    time.Now,
		runs:   make(map[string]*Run),
	}
}

// Generate runs the pipeline, forwarding every event to rep (which may be
// nil), and stores the run on success.
func (s *BlueprintService) Generate(ctx context.Context, req pipeline.Request, rep pipeline.Reporter) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	log := logrus.WithField("run_id", id)
	log.WithField("topic", req.Topic).Info("blueprint run started")

	var logs []string
	report := pipeline.ReporterFunc(func(e pipeline.Event) {
		logs = append(logs, e.String())
		log.WithField("step", e.Step).WithField("kind", e.Kind).Debug(e.Message)
		if rep != nil {
			rep.Report(e)
		}
	})

	bp, err := s.runner.Run(ctx, req, report)
	if err != nil {
		log.WithError(err).Warn("blueprint run failed")
		return nil, err
	}
	run := &Run{
		ID:        id,
		CreatedAt: s.now(),
		Request:   req,
		Blueprint: bp,
		Logs:      logs,
	}

	s.mu.Lock()
	s.runs[id] = run
	s.mu.Unlock()

	log.WithField("title", bp.Title).Info("blueprint run stored")
	return run, nil
}

// Get returns the run with id.
func (s *BlueprintService) Get(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	return run, ok
}

// List returns summaries, newest first.
func (s *BlueprintService) List() []Summary {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, Summary{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			Title:     run.Blueprint.Title,
			Topic:     run.Request.Topic,
			Style:     run.Request.Style,
			Budget:    cost.RoundCents(cost.Total(run.Blueprint.Budget)),
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
