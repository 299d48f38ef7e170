// Refereed is an HTTP service for LLM-assisted review of academic
// manuscripts.
//
// This binary starts the refereed HTTP server with full service
// initialization: the upstream completion client, secret scrubbing, the
// optional embeddings-backed sample ranker, and the analysis endpoints.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for the conventions.
//
// Usage:
//
//	# Start server with defaults
//	refereed
//
//	# Start with a config file
//	refereed --config /etc/refereed/config.yaml
//
//	# Configure via environment
//	SERVER_PORT=9090 UPSTREAM_API_KEY=sk-... refereed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/refereed/internal/analyze"
	"github.com/fyrsmithlabs/refereed/internal/completion"
	"github.com/fyrsmithlabs/refereed/internal/config"
	"github.com/fyrsmithlabs/refereed/internal/embeddings"
	"github.com/fyrsmithlabs/refereed/internal/logging"
	"github.com/fyrsmithlabs/refereed/internal/review"
	"github.com/fyrsmithlabs/refereed/internal/secrets"
	"github.com/fyrsmithlabs/refereed/internal/server"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	host := flag.String("host", "", "bind host (overrides config)")
	port := flag.Int("port", 0, "bind port (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *host, *port); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("refereed by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the refereed server and blocks until the context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes the structured logger
//  3. Builds the upstream completion client and secret scrubber
//  4. Builds the optional embeddings-backed comparison sampler
//  5. Wires the review and analysis services into the HTTP server
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath, host string, port int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger) // Best-effort sync on shutdown
	}()

	logger.Info("Starting refereed",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Upstream.Provider),
		zap.String("model", cfg.Upstream.Model),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	deps, err := initDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	logger.Info("Dependencies initialized",
		zap.Bool("scrubbing_enabled", deps.scrubber.IsEnabled()),
		zap.Bool("sampler_ready", deps.sampler != nil))

	reviews, err := review.NewService(deps.client, deps.scrubber, deps.sampler, logger, review.Config{
		BenchmarkMaxTokens: cfg.Review.BenchmarkMaxTokens,
		MaxSamplesPerSet:   cfg.Review.MaxSamplesPerSet,
	})
	if err != nil {
		return fmt.Errorf("failed to create review service: %w", err)
	}

	analyses, err := analyze.NewService(deps.client, deps.scrubber, logger)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}

	srv, err := server.NewServer(reviews, analyses, logger, &server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		RateLimitMax:    cfg.Server.RateLimitMax,
		RateLimitWindow: cfg.Server.RateLimitWindow,
		UpstreamTimeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("analyze_prefix", "/analyze"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// loadConfig loads configuration from the optional file path plus the
// environment.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadWithFile(configPath)
	}
	return config.Load()
}

// dependencies holds the upstream clients the services are built on.
type dependencies struct {
	client   completion.Client
	scrubber secrets.Scrubber
	sampler  embeddings.Sampler
}

// initDependencies builds the completion client, the secret scrubber, and
// the optional embeddings-backed comparison sampler.
func initDependencies(cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	client, err := completion.New(completion.Config{
		Provider:          cfg.Upstream.Provider,
		Model:             cfg.Upstream.Model,
		APIKey:            cfg.Upstream.APIKey,
		BaseURL:           cfg.Upstream.BaseURL,
		Timeout:           cfg.Upstream.Timeout,
		MaxTokens:         cfg.Upstream.MaxTokens,
		Temperature:       cfg.Upstream.Temperature,
		RequestsPerMinute: cfg.Upstream.RequestsPerMinute,
		Burst:             cfg.Upstream.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	scrubber, err := secrets.New(secrets.Config{Enabled: cfg.Secrets.Enabled})
	if err != nil {
		return nil, fmt.Errorf("failed to create secret scrubber: %w", err)
	}

	var sampler embeddings.Sampler
	if cfg.Embeddings.Enabled {
		embeddingSvc, err := embeddings.NewService(embeddings.Config{
			BaseURL: cfg.Embeddings.BaseURL,
			Model:   cfg.Embeddings.Model,
			APIKey:  cfg.Embeddings.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding service: %w", err)
		}
		sampler = embeddings.NewSimilaritySampler(embeddingSvc, logger)

		logger.Info("Embedding sampler initialized",
			zap.String("base_url", cfg.Embeddings.BaseURL),
			zap.String("model", cfg.Embeddings.Model))
	}

	return &dependencies{
		client:   client,
		scrubber: scrubber,
		sampler:  sampler,
	}, nil
}
