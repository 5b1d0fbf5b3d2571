// Package pipeline runs the six blueprint generation steps in order,
// threading each step's result into the next and reporting progress.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/soppliger/auteur/internal/config"
	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/defaults"
	"github.com/soppliger/auteur/internal/generate"
	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/retry"
)

const tracerName = "github.com/soppliger/auteur/internal/pipeline"

// ErrInvalidRequest is returned for requests missing a topic or style.
var ErrInvalidRequest = errors.New("invalid request")

// Generator is the remote generation surface used by the steps.
// *generate.Client implements it.
type Generator interface {
	Object(ctx context.Context, req generate.Request, out any) error
	Text(ctx context.Context, req generate.Request) (string, error)
}

// Options configure a Pipeline. Zero values pick the defaults.
type Options struct {
	// Retrier is copied for every remote call; its backoff state is never
	// shared between calls.
	Retrier            *retry.Retrier
	Defaults           *defaults.Table
	Fallbacks          bool
	OrchestratorPolicy config.Policy
	CostPolicy         config.Policy
	Tracer             trace.Tracer
}

// Pipeline is safe for concurrent Runs; each Run keeps its own state.
type Pipeline struct {
	gen  Generator
	opts Options
}

// New returns a Pipeline generating through gen.
func New(gen Generator, opts Options) (*Pipeline, error) {
	if gen == nil {
		return nil, errors.New("pipeline: generator is nil")
	}
	if opts.Retrier == nil {
		opts.Retrier = retry.New(retry.DefaultPolicy)
	}
	if opts.Defaults == nil {
		opts.Defaults = defaults.Default()
	}
	if opts.OrchestratorPolicy == "" {
		opts.OrchestratorPolicy = config.PolicyStatic
	}
	if opts.CostPolicy == "" {
		opts.CostPolicy = config.PolicyStatic
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	return &Pipeline{gen: gen, opts: opts}, nil
}

// Request is the input of one run.
type Request struct {
	Topic          string `json:"topic"`
	Style          string `json:"style"`
	RuntimeMinutes int    `json:"runtime,omitempty"`
	SceneCount     int    `json:"sceneCount,omitempty"`
}

// Validate reports a missing topic or style and negative sizes.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Style) == "" {
		return fmt.Errorf("%w: style is required", ErrInvalidRequest)
	}
	if r.RuntimeMinutes < 0 || r.SceneCount < 0 {
		return fmt.Errorf("%w: runtime and scene count must not be negative", ErrInvalidRequest)
	}
	return nil
}

func (r Request) normalized() Request {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Style = strings.TrimSpace(r.Style)
	if r.RuntimeMinutes == 0 {
		r.RuntimeMinutes = cost.DefaultRuntimeMinutes
	}
	if r.SceneCount == 0 {
		r.SceneCount = cost.DefaultSceneCount
	}
	return r
}

type step struct {
	name string
	run  func(*run, context.Context) error
}

var steps = []step{
	{StepSeriesBible, (*run).seriesBible},
	{StepOrchestrator, (*run).orchestratorConfig},
	{StepAgents, (*run).agentPersonas},
	{StepWorkflow, (*run).productionWorkflow},
	{StepArtifacts, (*run).executionArtifacts},
	{StepCost, (*run).costSchedule},
}

// Run executes every step in order and returns the assembled blueprint.
// A failed step aborts the run with a *StepError and no blueprint.
func (p *Pipeline) Run(ctx context.Context, req Request, rep Reporter) (*model.MasterBlueprint, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.normalized()
	if rep == nil {
		rep = nopReporter{}
	}

	ctx, span := p.opts.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("auteur.topic", req.Topic),
		attribute.String("auteur.style", req.Style),
		attribute.Int("auteur.runtime_minutes", req.RuntimeMinutes),
	))

	r := &run{p: p, req: req, rep: rep}
	for i, s := range steps {
		r.index, r.step = i+1, s.name
		err := ctx.Err()
		if err == nil {
			r.emit(EventStarted, stepMessages[s.name])
			stepCtx, stepSpan := p.opts.Tracer.Start(ctx, "pipeline.step."+s.name)
			err = s.run(r, stepCtx)
			endSpan(stepSpan, err)
		}
		if err != nil {
			serr := &StepError{Index: r.index, Step: s.name, Err: err}
			r.emit(EventFailed, serr.Error())
			logrus.WithField("step", s.name).WithError(err).Error("pipeline aborted")
			endSpan(span, serr)
			return nil, serr
		}
		r.emit(EventCompleted, s.name+" complete")
	}
	endSpan(span, nil)
	return r.blueprint(), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// run is the accumulated state of one Run.
type run struct {
	p     *Pipeline
	req   Request
	rep   Reporter
	index int
	step  string

	bible        model.SeriesBible
	orchestrator model.OrchestratorConfig
	agents       []model.AgentPersona
	workflow     []model.ProductionStage
	artifacts    model.ExecutionArtifacts
	budget       []model.CostItem
}

func (r *run) emit(kind EventKind, msg string) {
	r.rep.Report(Event{Index: r.index, Step: r.step, Kind: kind, Message: msg, Time: time.Now()})
}

func (r *run) retrier() *retry.Retrier {
	rt := *r.p.opts.Retrier
	next := rt.Notify
	rt.Notify = func(attempt int, err error, delay time.Duration) {
		r.rep.Report(Event{
			Index:   r.index,
			Step:    r.step,
			Kind:    EventRetry,
			Message: fmt.Sprintf("Attempt %d failed, retrying in %s: %v", attempt, delay, err),
			Attempt: attempt,
			Delay:   delay,
			Time:    time.Now(),
		})
		if next != nil {
			next(attempt, err, delay)
		}
	}
	return &rt
}

// canFallback reports whether a failed call may be replaced by its default.
// Authentication failures and cancellation always abort.
func (r *run) canFallback(ctx context.Context, err error) bool {
	return r.p.opts.Fallbacks && ctx.Err() == nil && !generate.IsAuth(err)
}

func (r *run) fellBack(what string, err error) {
	logrus.WithField("step", r.step).WithError(err).Warn("using default " + what)
	r.emit(EventFallback, fmt.Sprintf("Using default %s: %v", what, err))
}

func callObject[T any](ctx context.Context, r *run, name string, req generate.Request, check func(*T) error) (T, error) {
	ctx, span := r.p.opts.Tracer.Start(ctx, "generate."+name)
	v, err := retry.Do(ctx, r.retrier(), name, func(ctx context.Context) (T, error) {
		var out T
		if err := r.p.gen.Object(ctx, req, &out); err != nil {
			return out, err
		}
		if check != nil {
			if err := check(&out); err != nil {
				return out, err
			}
		}
		return out, nil
	})
	endSpan(span, err)
	return v, err
}

func callText(ctx context.Context, r *run, name string, req generate.Request) (string, error) {
	ctx, span := r.p.opts.Tracer.Start(ctx, "generate."+name)
	v, err := retry.Do(ctx, r.retrier(), name, func(ctx context.Context) (string, error) {
		return r.p.gen.Text(ctx, req)
	})
	endSpan(span, err)
	return v, err
}

func (r *run) seriesBible(ctx context.Context) error {
	bible, err := callObject[model.SeriesBible](ctx, r, StepSeriesBible, generate.Request{
		Step:   StepSeriesBible,
		Prompt: biblePrompt(r.req.Topic, r.req.Style),
		Shape:  bibleShape,
	}, nil)
	if err != nil {
		if !r.canFallback(ctx, err) {
			return err
		}
		bible = r.p.opts.Defaults.Bible(r.req.Topic)
		r.fellBack("series bible", err)
	}
	r.bible = bible
	return nil
}

func (r *run) orchestratorConfig(ctx context.Context) error {
	if r.p.opts.OrchestratorPolicy == config.PolicyStatic {
		r.orchestrator = r.p.opts.Defaults.OrchestratorConfig()
		r.emit(EventInfo, "Loaded platform configuration for "+r.orchestrator.SystemName)
		return nil
	}
	cfg, err := callObject[model.OrchestratorConfig](ctx, r, StepOrchestrator, generate.Request{
		Step:   StepOrchestrator,
		Prompt: orchestratorPrompt(r.bible),
		Shape:  orchestratorShape,
	}, nil)
	if err != nil {
		if !r.canFallback(ctx, err) {
			return err
		}
		cfg = r.p.opts.Defaults.OrchestratorConfig()
		r.fellBack("orchestrator configuration", err)
	}
	r.orchestrator = cfg
	return nil
}

func checkPersona(p *model.AgentPersona) error {
	if p.Temperature < 0 || p.Temperature > 1 {
		return &generate.MalformedError{Reason: fmt.Sprintf("temperature %v outside [0,1]", p.Temperature)}
	}
	return nil
}

func (r *run) agentPersonas(ctx context.Context) error {
	agents := make([]model.AgentPersona, 0, len(Roles))
	for _, role := range Roles {
		r.emit(EventInfo, "Configuring Agent: "+role+"...")
		name := StepAgents + "/" + role
		persona, err := callObject(ctx, r, name, generate.Request{
			Step:   name,
			Prompt: personaPrompt(role, r.bible),
			Shape:  personaShape,
		}, checkPersona)
		if err != nil {
			if !r.canFallback(ctx, err) {
				return fmt.Errorf("%s: %w", role, err)
			}
			persona = r.p.opts.Defaults.PersonaFor(role)
			r.fellBack("persona for "+role, err)
		}
		persona.Role = role
		if persona.Tools == nil {
			persona.Tools = []string{}
		}
		agents = append(agents, persona)
	}
	r.agents = agents
	return nil
}

func checkWorkflow(stages *[]model.ProductionStage) error {
	if len(*stages) == 0 {
		return &generate.MalformedError{Reason: "workflow has no stages"}
	}
	return nil
}

func (r *run) productionWorkflow(ctx context.Context) error {
	stages, err := callObject(ctx, r, StepWorkflow, generate.Request{
		Step:   StepWorkflow,
		Prompt: workflowPrompt(r.bible, Roles),
		Shape:  workflowShape,
	}, checkWorkflow)
	if err != nil {
		if !r.canFallback(ctx, err) {
			return err
		}
		r.workflow = r.p.opts.Defaults.Stages()
		r.fellBack("workflow", err)
		return nil
	}
	// stages are numbered in arrival order
	for i := range stages {
		stages[i].Step = i + 1
		stages[i].Status = model.StagePending
	}
	r.workflow = stages
	return nil
}

func (r *run) executionArtifacts(ctx context.Context) error {
	names := []string{model.ArtifactDockerCompose, model.ArtifactBootScript, model.ArtifactReadme}
	texts := make(map[string]string, len(names))
	for _, name := range names {
		r.emit(EventInfo, "Writing "+name+"...")
		callName := StepArtifacts + "/" + name
		text, err := callText(ctx, r, callName, generate.Request{
			Step:   callName,
			Prompt: artifactPrompt(name, r.orchestrator, r.agents),
		})
		if err != nil {
			if !r.canFallback(ctx, err) {
				return fmt.Errorf("%s: %w", name, err)
			}
			r.artifacts = r.p.opts.Defaults.ExecutionArtifacts()
			r.fellBack("execution artifacts", err)
			return nil
		}
		texts[name] = text
	}
	r.artifacts = model.ExecutionArtifacts{
		DockerCompose: texts[model.ArtifactDockerCompose],
		BootScript:    texts[model.ArtifactBootScript],
		Readme:        texts[model.ArtifactReadme],
	}
	return nil
}

// checkCost requires the calculator's row layout and canonicalises the
// category names.
func checkCost(items *[]model.CostItem) error {
	rows := *items
	if len(rows) != len(cost.Categories) {
		return &generate.MalformedError{Reason: fmt.Sprintf("cost table has %d rows, want %d", len(rows), len(cost.Categories))}
	}
	for i, want := range cost.Categories {
		if !strings.EqualFold(strings.TrimSpace(rows[i].Category), want) {
			return &generate.MalformedError{Reason: fmt.Sprintf("cost row %d is %q, want %q", i+1, rows[i].Category, want)}
		}
		rows[i].Category = want
	}
	return nil
}

func (r *run) costSchedule(ctx context.Context) error {
	params := cost.Params{RuntimeMinutes: r.req.RuntimeMinutes, SceneCount: r.req.SceneCount}
	if r.p.opts.CostPolicy == config.PolicyStatic {
		r.budget = cost.Estimate(params)
	} else {
		items, err := callObject(ctx, r, StepCost, generate.Request{
			Step:   StepCost,
			Prompt: costPrompt(r.bible, r.req.RuntimeMinutes, r.req.SceneCount),
			Shape:  costShape,
		}, checkCost)
		if err != nil {
			if !r.canFallback(ctx, err) {
				return err
			}
			items = cost.Estimate(params)
			r.fellBack("cost table", err)
		}
		r.budget = cost.Recompute(items)
	}
	r.emit(EventInfo, fmt.Sprintf("Estimated budget: $%.2f", cost.RoundCents(cost.Total(r.budget))))
	return nil
}

func (r *run) blueprint() *model.MasterBlueprint {
	title := strings.TrimSpace(r.bible.SeriesTitle)
	if title == "" {
		title = r.req.Topic
	}
	return &model.MasterBlueprint{
		Title: title,
		Logline: fmt.Sprintf("A %s exploration of %s, visualized through %s.",
			strings.ToLower(r.bible.NarrativeTone), r.req.Topic, r.bible.VisualLanguage),
		Style:         r.req.Style,
		Runtime:       r.req.RuntimeMinutes,
		SeriesBible:   r.bible,
		Agents:        r.agents,
		Workflow:      r.workflow,
		Budget:        r.budget,
		Orchestrator:  r.orchestrator,
		DockerCompose: r.artifacts.DockerCompose,
		BootScript:    r.artifacts.BootScript,
		Readme:        r.artifacts.Readme,
	}
}

// SeriesBible runs only the first step. Fallback and retry behave as in Run.
func (p *Pipeline) SeriesBible(ctx context.Context, topic, style string, rep Reporter) (model.SeriesBible, error) {
	req := Request{Topic: topic, Style: style}
	if err := req.Validate(); err != nil {
		return model.SeriesBible{}, err
	}
	if rep == nil {
		rep = nopReporter{}
	}
	r := &run{p: p, req: req.normalized(), rep: rep, index: 1, step: StepSeriesBible}
	if err := r.seriesBible(ctx); err != nil {
		return model.SeriesBible{}, &StepError{Index: 1, Step: StepSeriesBible, Err: err}
	}
	return r.bible, nil
}
