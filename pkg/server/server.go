// Package server assembles the HTTP API: echo, middleware, health, metrics and routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/health"
)

const (
	APIPrefix   = "/api/v1"
	MetricsPath = "/metrics"
)

// RegisterFunc registers a set of handlers on the authenticated API group
type RegisterFunc func(g *echo.Group)

// Config holds listener and CORS settings
type Config struct {
	AppName           string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int
	AllowOrigins      []string
	AllowMethods      []string

	// ContainerID names the dependency container activated on every request.
	// Empty leaves handlers on the default container.
	ContainerID string
}

type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	logger     ectologger.Logger
}

// New builds the server. verifier may be nil, which leaves the API unauthenticated.
func New(logger ectologger.Logger, cfg Config, checker *health.Checker, verifier middleware.TokenVerifier, routes ...RegisterFunc) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(middleware.Context())
	if cfg.ContainerID != "" {
		e.Use(middleware.Container(cfg.ContainerID))
	}
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	if checker != nil {
		checker.RegisterRoutes(e)
	}
	e.GET(MetricsPath, echo.WrapHandler(promhttp.Handler()))

	api := e.Group(APIPrefix)
	if verifier != nil {
		api.Use(middleware.Authentication(logger, verifier))
	}
	for _, register := range routes {
		register(api)
	}

	return &Server{
		echo:   e,
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           e,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			MaxHeaderBytes:    cfg.MaxHeaderBytes,
		},
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.WithContext(ctx).Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
