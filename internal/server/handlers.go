package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soppliger/auteur/internal/cost"
	"github.com/soppliger/auteur/internal/model"
	"github.com/soppliger/auteur/internal/pipeline"
	"github.com/soppliger/auteur/internal/service"
	"github.com/soppliger/auteur/internal/tools"
)

type runResponse struct {
	ID        string                 `json:"id"`
	Blueprint *model.MasterBlueprint `json:"blueprint"`
	Logs      []string               `json:"logs"`
}

func newRunResponse(run *service.Run) runResponse {
	return runResponse{ID: run.ID, Blueprint: run.Blueprint, Logs: run.Logs}
}

// errorBody maps err to a status and a JSON body.
func errorBody(err error) (int, gin.H) {
	var serr *pipeline.StepError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.As(err, &serr):
		return http.StatusBadGateway, gin.H{"error": err.Error(), "step": serr.Step, "kind": serr.Kind()}
	default:
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}
}

func bindRequest(c *gin.Context) (pipeline.Request, bool) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return req, false
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

func (h *handler) createBlueprint(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	run, err := h.runs.Generate(c.Request.Context(), req, nil)
	if err != nil {
		c.JSON(errorBody(err))
		return
	}
	c.JSON(http.StatusCreated, newRunResponse(run))
}

// streamBlueprint sends one "progress" event per pipeline event, then a
// single "blueprint" or "error" event.
func (h *handler) streamBlueprint(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events := make(chan pipeline.Event, 16)
	type result struct {
		run *service.Run
		err error
	}
	done := make(chan result, 1)
	go func() {
		run, err := h.runs.Generate(ctx, req, pipeline.ReporterFunc(func(e pipeline.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		}))
		close(events)
		done <- result{run: run, err: err}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for e := range events {
		c.SSEvent("progress", e)
		c.Writer.Flush()
	}
	res := <-done
	if res.err != nil {
		_, body := errorBody(res.err)
		c.SSEvent("error", body)
	} else {
		c.SSEvent("blueprint", newRunResponse(res.run))
	}
	c.Writer.Flush()
}

func (h *handler) listBlueprints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blueprints": h.runs.List()})
}

func (h *handler) lookup(c *gin.Context) (*service.Run, bool) {
	run, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "blueprint not found"})
	}
	return run, ok
}

func (h *handler) getBlueprint(c *gin.Context) {
	if run, ok := h.lookup(c); ok {
		c.JSON(http.StatusOK, newRunResponse(run))
	}
}

func (h *handler) getLogs(c *gin.Context) {
	if run, ok := h.lookup(c); ok {
		c.JSON(http.StatusOK, gin.H{"logs": run.Logs})
	}
}

func (h *handler) getArtifact(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	name := c.Param("name")
	if name == model.ArtifactBlueprint {
		c.Header("Content-Disposition", `attachment; filename="`+model.ArtifactBlueprint+`"`)
		c.IndentedJSON(http.StatusOK, run.Blueprint)
		return
	}
	text, ok := run.Blueprint.ArtifactText(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown artifact " + name})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

func (h *handler) getCost(c *gin.Context) {
	var q struct {
		Runtime int `form:"runtime"`
		Scenes  int `form:"scenes"`
	}
	if err := c.ShouldBindQuery(&q); err != nil || q.Runtime < 0 || q.Scenes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "runtime and scenes must be non-negative integers"})
		return
	}
	c.JSON(http.StatusOK, tools.Estimate(cost.Params{RuntimeMinutes: q.Runtime, SceneCount: q.Scenes}))
}

func (h *handler) pipelineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"steps": pipeline.Describe(),
		"roles": pipeline.Roles,
		"tools": h.tools.Names(),
	})
}

func (h *handler) invokeTool(c *gin.Context) {
	t, ok := h.tools.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown tool " + c.Param("name")})
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	out, err := t.InvokableRun(c.Request.Context(), string(body))
	if err != nil {
		if errors.Is(err, tools.ErrBadArguments) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(errorBody(err))
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(out))
}
