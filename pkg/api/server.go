// Package api provides the HTTP surface over the generation pipeline:
// POST /assessments, POST /assessments/validate, and GET /health
// (spec §6). Grounded on the teacher's gin wiring in cmd/tarsy/main.go
// (the router actually constructed at startup, as opposed to the
// unwired echo-based pkg/api/server.go left further along in that
// repo's history).
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andymattick/eduagents/pkg/database"
	"github.com/andymattick/eduagents/pkg/models"
	"github.com/andymattick/eduagents/pkg/orchestrator"
	"github.com/andymattick/eduagents/pkg/promptengineer"
	"github.com/andymattick/eduagents/pkg/services"
	"github.com/andymattick/eduagents/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	orchestrator *orchestrator.Orchestrator
	promptEngine *promptengineer.Engine
	resolver     *services.EntryResolver
	dbPool       *pgxpool.Pool
	validate     *validator.Validate
}

// NewServer wires the router and registers routes. dbPool may be nil in
// deployments with no persistence boundary configured; the health
// endpoint then omits the database section rather than failing outright.
func NewServer(orch *orchestrator.Orchestrator, promptEngine *promptengineer.Engine, resolver *services.EntryResolver, dbPool *pgxpool.Pool) *Server {
	engine := gin.Default()

	s := &Server{
		engine:       engine,
		orchestrator: orch,
		promptEngine: promptEngine,
		resolver:     resolver,
		dbPool:       dbPool,
		validate:     validator.New(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)
	s.engine.POST("/assessments", s.generateAssessmentHandler)
	s.engine.POST("/assessments/validate", s.validateIntentHandler)
}

// Start starts the HTTP server (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"version": version.Full(),
	}

	if s.dbPool != nil {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		status, err := database.Health(reqCtx, s.dbPool)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": status,
				"error":    err.Error(),
			})
			return
		}
		response["database"] = status
	}

	c.JSON(http.StatusOK, response)
}

// generateAssessmentRequest is the POST /assessments request body.
type generateAssessmentRequest struct {
	models.TeacherIntent
	Playtest bool `json:"playtest,omitempty"`
}

// generateAssessmentHandler handles POST /assessments (generateAssessment).
func (s *Server) generateAssessmentHandler(c *gin.Context) {
	var req generateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validate.Struct(req.TeacherIntent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent := req.TeacherIntent
	if s.resolver != nil {
		var err error
		intent, err = s.resolver.ApplyDefaults(c.Request.Context(), intent)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := s.resolver.AuthorizeMode(c.Request.Context(), intent, req.Playtest); err != nil {
			mapServiceError(c, err)
			return
		}
	}

	result, err := s.orchestrator.GenerateAssessment(c.Request.Context(), intent, req.Playtest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// validateIntentHandler handles POST /assessments/validate
// (runPromptEngineer): a dry-run preview of pacing/Bloom feedback and the
// creation-time estimate without invoking the Writer (spec §6).
func (s *Server) validateIntentHandler(c *gin.Context) {
	var intent models.TeacherIntent
	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validate.Struct(intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.promptEngine.Run(intent))
}
