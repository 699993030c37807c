// Package server exposes a read-only inventory API over the bundle
// repository for the device's admin surface.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coreforge/internal/domain-adapters/gateways"
	"coreforge/internal/domain/interfaces"
	"coreforge/internal/domain/interfaces/repositories"

	"github.com/gin-gonic/gin"
)

// Server serves bundle inventory and build report data over HTTP
type Server struct {
	repo       repositories.BundleRepository
	renderer   *gateways.DockerfileRenderer
	reportPath string
	logger     interfaces.Logger
	engine     *gin.Engine
}

// Config holds server wiring
type Config struct {
	Repo       repositories.BundleRepository
	ReportPath string // JSON build report served at /api/reports/latest
	Logger     interfaces.Logger
}

// New creates a server and registers its routes
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		repo:       cfg.Repo,
		renderer:   gateways.NewDockerfileRenderer(),
		reportPath: cfg.ReportPath,
		logger:     logger,
		engine:     engine,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/bundles", s.handleListBundles)
	api.GET("/bundles/:name", s.handleGetBundle)
	api.GET("/bundles/:name/dockerfile", s.handleDockerfile)
	api.GET("/reports/latest", s.handleLatestReport)
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled or a termination signal
// arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving inventory API", interfaces.F("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
	case sig := <-sigCh:
		s.logger.Info("shutting down", interfaces.F("signal", sig))
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
