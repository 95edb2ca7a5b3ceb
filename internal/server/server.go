package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seoforge/seoforge/internal/config"
	"github.com/seoforge/seoforge/internal/repository"
	"github.com/seoforge/seoforge/internal/service"
	"github.com/seoforge/seoforge/internal/service/analytics"
	"github.com/seoforge/seoforge/internal/service/generator"
	"github.com/seoforge/seoforge/internal/service/publisher/gbp"
	"github.com/seoforge/seoforge/internal/service/publisher/wordpress"
	"github.com/seoforge/seoforge/internal/service/ranking"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	Store     repository.Store
	Engine    *service.AutomationEngine
	Scheduler *service.Scheduler
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	store := repository.NewGormStore(db)

	// Initialize services
	engine := service.NewAutomationEngine(
		store,
		generator.NewOpenAIGenerator(cfg.Generator, logger),
		wordpress.NewPublisher(logger),
		gbp.NewPublisher(logger),
		ranking.NewSEMrushClient(logger),
		analytics.NewGA4Client(logger),
		logger,
	)
	scheduler := service.NewScheduler(&cfg.Scheduler, logger, engine, store)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:    cfg,
		DB:        db,
		Router:    router,
		Logger:    logger,
		Store:     store,
		Engine:    engine,
		Scheduler: scheduler,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		clients := api.Group("/clients/:id")
		{
			clients.POST("/uploads", s.handleUpload)
			clients.GET("/automations", s.handleListAutomations)
			clients.GET("/posts", s.handleListPosts)
			clients.GET("/keywords", s.handleListKeywords)
			clients.GET("/analytics", s.handleListAnalytics)
			clients.GET("/report", s.handleGenerateReport)
			clients.GET("/scheduler/tasks", s.handleClientTasks)
		}

		scheduler := api.Group("/scheduler")
		{
			scheduler.GET("/tasks", s.handleListTasks)
			scheduler.POST("/tasks", s.handleAddTask)
			scheduler.DELETE("/tasks/:taskId", s.handleRemoveTask)
		}
	}
}

func (s *Server) clientID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) handleUpload(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}

	var upload service.ContentUpload
	if err := c.ShouldBindJSON(&upload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload payload"})
		return
	}
	if upload.Type == "" || upload.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Upload type and title are required"})
		return
	}

	automationID, err := s.Engine.ProcessUpload(c.Request.Context(), clientID, upload)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		s.Logger.Error("Failed to accept upload", zap.Uint("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept upload"})
		return
	}

	// The workflow continues in the background; the caller polls the
	// automation for its outcome.
	c.JSON(http.StatusAccepted, gin.H{
		"automation_id": automationID,
		"status":        "processing",
	})
}

func (s *Server) handleListAutomations(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	automations, err := s.Store.ListAutomations(c.Request.Context(), clientID, limit)
	if err != nil {
		s.Logger.Error("Failed to list automations", zap.Uint("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list automations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"automations": automations})
}

func (s *Server) handleListPosts(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	posts, err := s.Store.FindRecentBlogPosts(c.Request.Context(), clientID, c.Query("q"), limit)
	if err != nil {
		s.Logger.Error("Failed to list posts", zap.Uint("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) handleListKeywords(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}

	keywords, err := s.Store.ListKeywords(c.Request.Context(), clientID)
	if err != nil {
		s.Logger.Error("Failed to list keywords", zap.Uint("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list keywords"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func (s *Server) handleListAnalytics(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	rows, err := s.Store.ListAnalytics(c.Request.Context(), clientID, days)
	if err != nil {
		s.Logger.Error("Failed to list analytics", zap.Uint("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"analytics": rows})
}

func (s *Server) handleGenerateReport(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}

	report, err := s.Engine.GenerateMonthlyReport(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		s.Logger.Error("Failed to generate report", zap.Uint("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": s.Scheduler.Tasks()})
}

func (s *Server) handleClientTasks(c *gin.Context) {
	clientID, ok := s.clientID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": s.Scheduler.TasksForClient(clientID)})
}

func (s *Server) handleAddTask(c *gin.Context) {
	var req struct {
		ClientID uint   `json:"client_id" binding:"required"`
		Type     string `json:"type" binding:"required"`
		Schedule string `json:"schedule" binding:"required"`
		Enabled  *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task payload"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	task, err := s.Scheduler.AddTask(req.ClientID, service.TaskType(req.Type), req.Schedule, enabled)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleRemoveTask(c *gin.Context) {
	if !s.Scheduler.RemoveTask(c.Param("taskId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task removed"})
}

func (s *Server) Start(ctx context.Context) error {
	// Start scheduler
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first, then drain in-flight automations
	s.Scheduler.Stop()
	s.Engine.Wait()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
