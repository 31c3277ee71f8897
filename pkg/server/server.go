// Package server assembles the HTTP API: routing, middleware and lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mirae-labs/go-mirae"
	"github.com/mirae-labs/go-mirae/pkg/config"
	"github.com/mirae-labs/go-mirae/pkg/server/handlers"
)

// Server owns the gin engine and the underlying http.Server.
type Server struct {
	cfg    *config.Config
	client *mirae.Client
	logger *slog.Logger
	engine *gin.Engine
	http   *http.Server
}

// New creates a server around an assembled client.
func New(cfg *config.Config, client *mirae.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// Setup builds the router. Must be called before Start.
func (s *Server) Setup() {
	gin.SetMode(ginMode(s.cfg.Server.Mode))
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.logger))

	askHandler := handlers.NewAskHandler(s.client)
	adminHandler := handlers.NewAdminHandler(s.client)
	healthHandler := handlers.NewHealthHandler()

	engine.GET("/health", healthHandler.HealthCheck)

	v1 := engine.Group("/v1")
	v1.Use(RateLimit(s.client.Limiter(), s.cfg.RateLimit))
	{
		v1.POST("/ask", askHandler.Ask)
		v1.POST("/ask/stream", askHandler.AskStream)
		v1.GET("/stats", adminHandler.Stats)
		v1.POST("/feedback", adminHandler.Feedback)
	}

	s.engine = engine
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Start runs the HTTP server until it fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.DebugMode
	}
}

// requestLogger records one line per request with latency and status.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
