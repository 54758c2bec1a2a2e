package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wakeaudio/internal/cache"
	"wakeaudio/internal/compose"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MasterKey      string // Optional: Master key for authentication
	MetricsEnabled bool   // Whether to expose Prometheus metrics endpoint
}

// New creates a new HTTP server
func New(composer *compose.Composer, segmentCache *cache.SegmentCache, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true

	handler := NewHandler(composer, segmentCache)

	// Global middleware stack (order matters)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Authentication (skips public paths)
	if cfg != nil && cfg.MasterKey != "" {
		e.Use(AuthMiddleware(cfg.MasterKey, []string{"/health", "/metrics"}))
	}

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	// API routes
	e.POST("/v1/compose", handler.Compose)
	e.GET("/v1/cache/stats", handler.CacheStats)
	e.POST("/v1/cache/cleanup", handler.CacheCleanup)
	e.DELETE("/v1/cache/entries", handler.CacheInvalidate)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
