// Package server provides the HTTP API for refereed.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/refereed/internal/analyze"
	"github.com/fyrsmithlabs/refereed/internal/review"
)

// Server exposes the analysis and review pipelines over HTTP.
type Server struct {
	echo     *echo.Echo
	reviews  *review.Service
	analyses *analyze.Service
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimitMax requests per RateLimitWindow, shared by all /analyze
	// routes, keyed by client IP.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// UpstreamTimeout bounds each request's whole upstream conversation;
	// the handler context expires with it.
	UpstreamTimeout time.Duration
}

func defaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            9090,
		RateLimitMax:    30,
		RateLimitWindow: 60 * time.Second,
		UpstreamTimeout: 30 * time.Second,
	}
}

// NewServer creates the HTTP server.
func NewServer(reviews *review.Service, analyses *analyze.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if reviews == nil {
		return nil, fmt.Errorf("review service cannot be nil")
	}
	if analyses == nil {
		return nil, fmt.Errorf("analysis service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = defaultConfig()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		reviews:  reviews,
		analyses: analyses,
		logger:   logger,
		config:   cfg,
	}

	e.HTTPErrorHandler = s.handleError

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(observeRequests)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints. Health and metrics stay
// outside the rate-limited group.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := s.echo.Group("/analyze", s.analyzeRateLimiter())
	g.POST("/term", s.handleTerm)
	g.POST("/citations-batch", s.handleCitationsBatch)
	g.POST("/format", s.handleFormat)
	g.POST("/format-reference", s.handleFormatReference)
	g.POST("/cite", s.handleCite)
	g.POST("/review-paper", s.handleReviewPaper)
}

// analyzeRateLimiter builds the shared per-IP limiter for the /analyze
// group: a token bucket holding one window's worth of requests, refilled at
// the window rate.
func (s *Server) analyzeRateLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(s.config.RateLimitMax) / s.config.RateLimitWindow.Seconds()),
		Burst:     s.config.RateLimitMax,
		ExpiresIn: 3 * s.config.RateLimitWindow,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			s.logger.Warn("rate limit exceeded", zap.String("client", identifier))
			return c.JSON(http.StatusTooManyRequests, errorBody{Error: "Too many requests. Please wait a moment."})
		},
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
