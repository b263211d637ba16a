package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sales-assistant/agent"
	"sales-assistant/config"
	"sales-assistant/facts"
	"sales-assistant/rag"
	"sales-assistant/report"
	"sales-assistant/web/handlers"
	"sales-assistant/web/middleware"
	"sales-assistant/web/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the application services the HTTP layer exposes.
type Dependencies struct {
	Employees *services.EmployeeService
	Activity  *services.ActivityService
	Plans     *services.PlanService
	Notes     *services.NoteService
	Knowledge *services.KnowledgeService
	Facts     *facts.Service
	Passages  *rag.RAG
	Assistant *agent.Assistant
	Sessions  *agent.Sessions
	Summaries *report.Runner
	Limiter   *middleware.EmployeeRateLimiter
	// Today returns the current business date.
	Today    func() time.Time
	Location *time.Location
}

type Server struct {
	router *gin.Engine
	deps   Dependencies
	logger *zap.Logger
	config *config.Config
}

func NewServer(deps Dependencies, logger *zap.Logger, config *config.Config) *Server {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	if config != nil && len(config.CORSAllowedOrigins) > 0 {
		router.Use(middleware.CORS(config.CORSAllowedOrigins))
	}
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})

	server := &Server{
		router: router,
		deps:   deps,
		logger: logger,
		config: config,
	}

	server.setupRoutes()
	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	d := s.deps
	employeeHandler := handlers.NewEmployeeHandler(d.Employees, s.logger)
	activityHandler := handlers.NewActivityHandler(d.Activity, d.Plans, d.Notes, d.Location, s.logger)
	assistantHandler := handlers.NewAssistantHandler(d.Assistant, d.Sessions, s.logger)
	knowledgeHandler := handlers.NewKnowledgeHandler(d.Facts, d.Passages, d.Knowledge, d.Today, s.logger)
	summaryHandler := handlers.NewSummaryHandler(d.Summaries, d.Today, s.logger)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Registration and operator endpoints; allow-listing happens upstream.
	s.router.POST("/api/employees", employeeHandler.Register)
	s.router.DELETE("/api/employees/:id", employeeHandler.Deactivate)
	s.router.POST("/api/summary/run", summaryHandler.Run)
	admin := s.router.Group("/api/admin")
	admin.POST("/facts", knowledgeHandler.AddFact)
	admin.POST("/chunks", knowledgeHandler.UpsertChunks)
	admin.DELETE("/documents/:id", knowledgeHandler.DeleteDocument)

	// Employee endpoints
	api := s.router.Group("/api")
	api.Use(middleware.EmployeeMiddleware(d.Employees, s.logger))
	if d.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(d.Limiter))
	}
	api.POST("/attempts", activityHandler.RecordAttempts)
	api.POST("/meetings", activityHandler.RecordMeeting)
	api.PUT("/plan", activityHandler.SetPlan)
	api.GET("/notes", activityHandler.ListNotes)
	api.POST("/notes", activityHandler.AddNote)
	api.GET("/stats", summaryHandler.Stats)
	api.POST("/assistant/ask", assistantHandler.Ask)
	api.DELETE("/assistant/slots", assistantHandler.ResetSlots)
	api.POST("/facts/resolve", knowledgeHandler.ResolveFact)
	api.GET("/passages", knowledgeHandler.SearchPassages)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
	}()

	// Wait for context cancellation
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
