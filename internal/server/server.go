// Package server is the HTTP surface for blueprint runs.
package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/soppliger/auteur/internal/pipeline"
	"github.com/soppliger/auteur/internal/service"
	"github.com/soppliger/auteur/internal/tools"
)

// Blueprints is the run registry used by the handlers.
// *service.BlueprintService implements it.
type Blueprints interface {
	Generate(ctx context.Context, req pipeline.Request, rep pipeline.Reporter) (*service.Run, error)
	Get(id string) (*service.Run, bool)
	List() []service.Summary
}

type handler struct {
	runs  Blueprints
	tools *tools.Registry
}

// NewRouter registers every route on a new gin engine.
func NewRouter(runs Blueprints, reg *tools.Registry) *gin.Engine {
	h := &handler{runs: runs, tools: reg}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	api.POST("/blueprints", h.createBlueprint)
	api.POST("/blueprints/stream", h.streamBlueprint)
	api.GET("/blueprints", h.listBlueprints)
	api.GET("/blueprints/:id", h.getBlueprint)
	api.GET("/blueprints/:id/logs", h.getLogs)
	api.GET("/blueprints/:id/artifacts/:name", h.getArtifact)
	api.GET("/cost", h.getCost)
	api.GET("/pipeline/info", h.pipelineInfo)

	router.POST("/tools/:name", h.invokeTool)
	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithField("method", c.Request.Method).
			WithField("path", c.FullPath()).
			WithField("status", c.Writer.Status()).
			WithField("latency", time.Since(start)).
			Info("http request")
	}
}
