// Package api exposes the resolution engine over HTTP.
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
	"github.com/yourflix/catalogd/internal/metadata"
	"github.com/yourflix/catalogd/internal/resolve"
)

// Resolver is the resolution engine surface the API needs.
type Resolver interface {
	Resolve(ctx context.Context, raw string, opts resolve.Options) (*metadata.Resolved, error)
	ProviderStatus() map[string]bool
}

// Queue accepts deferred lookups for the backfill driver.
type Queue interface {
	Enqueue(ctx context.Context, identifier, hint string) (string, error)
	QueueCounts(ctx context.Context) (map[string]int, error)
}

// Server handles HTTP requests for the catalogd API.
type Server struct {
	echo     *echo.Echo
	resolver Resolver
	queue    Queue
	logger   zerolog.Logger
	cfg      *config.Config
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, resolver Resolver, queue Queue, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		resolver: resolver,
		queue:    queue,
		logger:   logger.With().Str("component", "api").Logger(),
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// Request body size limit
	s.echo.Use(middleware.BodyLimit("1M"))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	api := s.echo.Group("/api/v1")
	api.POST("/lookup", s.lookup)
	api.POST("/lookup/batch", s.lookupBatch)
	api.GET("/queue", s.queueStatus)
	api.GET("/health", s.healthCheck)
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("Starting API server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
