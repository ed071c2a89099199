// Package api serves the reward, snapshot and deployment records over REST.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-taxed-token/internal/logger"
	"solana-taxed-token/internal/observability"
	"solana-taxed-token/internal/storage"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// Stores are the backends the handlers read and write. Deployments and
// Ping are optional.
type Stores struct {
	Rewards     storage.RewardStore
	Snapshots   storage.SnapshotStore
	Deployments storage.DeploymentStore
	Ping        func(ctx context.Context) error
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	stores     Stores
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, stores Stores) *Server {
	s := &Server{config: cfg, stores: stores}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(Recovery())
	router.Use(RequestID())
	router.Use(Logger())
	router.Use(Metrics())
	router.Use(CORS(s.config.CORSOrigins))

	h := &handler{stores: s.stores}
	setupRoutes(router, h)
	return router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	logger.Info("Starting API server", zap.String("address", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// setupRoutes configures all REST API routes
func setupRoutes(router *gin.Engine, h *handler) {
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	api := router.Group("/api")
	{
		api.POST("/rewards", h.CreateReward)
		api.GET("/rewards", h.ListRewards)
		api.GET("/rewards/:id", h.GetReward)
		api.PUT("/rewards/:id", h.UpdateReward)
		api.DELETE("/rewards/:id", h.DeleteReward)

		api.POST("/snapshots", h.CreateSnapshot)
		api.GET("/snapshots", h.ListSnapshots)
		api.GET("/snapshots/:id", h.GetSnapshot)
		api.PUT("/snapshots/:id", h.UpdateSnapshot)
		api.DELETE("/snapshots/:id", h.DeleteSnapshot)

		if h.stores.Deployments != nil {
			api.GET("/deployments", h.ListDeployments)
			api.GET("/deployments/:mint", h.GetDeployment)
		}
	}
}
