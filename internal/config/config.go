// Package config provides configuration loading for refereed.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then environment variables (highest precedence). See LoadWithFile for the
// file and environment conventions.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/refereed/internal/logging"
)

// Config holds the complete refereed configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Upstream   UpstreamConfig   `koanf:"upstream"`
	Review     ReviewConfig     `koanf:"review"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Secrets    SecretsConfig    `koanf:"secrets"`
	Logging    logging.Config   `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Rate limit shared by all /analyze routes, per client IP.
	RateLimitMax    int           `koanf:"rate_limit_max"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// UpstreamConfig holds completion-service client configuration.
type UpstreamConfig struct {
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
	BaseURL  string `koanf:"base_url"`
	// Timeout bounds both the per-call HTTP client and the overall
	// request deadline applied at the handler boundary.
	Timeout           time.Duration `koanf:"timeout"`
	MaxTokens         int           `koanf:"max_tokens"`
	Temperature       float64       `koanf:"temperature"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	Burst             int           `koanf:"burst"`
}

// ReviewConfig holds review-pipeline tuning.
type ReviewConfig struct {
	BenchmarkMaxTokens int `koanf:"benchmark_max_tokens"`
	MaxSamplesPerSet   int `koanf:"max_samples_per_set"`
}

// EmbeddingsConfig holds the optional comparison-sample ranking backend.
type EmbeddingsConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  string `koanf:"api_key"`
}

// SecretsConfig controls outbound secret scrubbing.
type SecretsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.RateLimitMax == 0 {
		cfg.Server.RateLimitMax = 30
	}
	if cfg.Server.RateLimitWindow == 0 {
		cfg.Server.RateLimitWindow = 60 * time.Second
	}

	if cfg.Upstream.Provider == "" {
		cfg.Upstream.Provider = "anthropic"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 30 * time.Second
	}
	if cfg.Upstream.MaxTokens == 0 {
		cfg.Upstream.MaxTokens = 1024
	}
	if cfg.Upstream.Temperature == 0 {
		cfg.Upstream.Temperature = 0.3
	}
	if cfg.Upstream.RequestsPerMinute == 0 {
		cfg.Upstream.RequestsPerMinute = 50
	}
	if cfg.Upstream.Burst == 0 {
		cfg.Upstream.Burst = 5
	}

	if cfg.Review.BenchmarkMaxTokens == 0 {
		cfg.Review.BenchmarkMaxTokens = 800
	}
	if cfg.Review.MaxSamplesPerSet == 0 {
		cfg.Review.MaxSamplesPerSet = 3
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:8080/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	if cfg.Logging.StacktraceLevel == "" {
		cfg.Logging.StacktraceLevel = "error"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimitMax <= 0 {
		return fmt.Errorf("server rate_limit_max must be positive, got %d", c.Server.RateLimitMax)
	}
	if c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server rate_limit_window must be positive, got %v", c.Server.RateLimitWindow)
	}

	if c.Upstream.Provider != "anthropic" && c.Upstream.Provider != "openai" {
		return fmt.Errorf("upstream provider must be 'anthropic' or 'openai', got %q", c.Upstream.Provider)
	}
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("upstream api_key is required (set UPSTREAM_API_KEY)")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %v", c.Upstream.Timeout)
	}
	if c.Upstream.MaxTokens <= 0 {
		return fmt.Errorf("upstream max_tokens must be positive, got %d", c.Upstream.MaxTokens)
	}
	if c.Upstream.Temperature < 0 || c.Upstream.Temperature > 2 {
		return fmt.Errorf("upstream temperature must be in [0,2], got %v", c.Upstream.Temperature)
	}
	if c.Upstream.RequestsPerMinute <= 0 {
		return fmt.Errorf("upstream requests_per_minute must be positive, got %v", c.Upstream.RequestsPerMinute)
	}
	if c.Upstream.Burst <= 0 {
		return fmt.Errorf("upstream burst must be positive, got %d", c.Upstream.Burst)
	}

	if c.Review.BenchmarkMaxTokens <= 0 {
		return fmt.Errorf("review benchmark_max_tokens must be positive, got %d", c.Review.BenchmarkMaxTokens)
	}
	if c.Review.MaxSamplesPerSet <= 0 {
		return fmt.Errorf("review max_samples_per_set must be positive, got %d", c.Review.MaxSamplesPerSet)
	}

	if c.Embeddings.Enabled {
		if c.Embeddings.BaseURL == "" {
			return fmt.Errorf("embeddings base_url is required when embeddings are enabled")
		}
		if c.Embeddings.Model == "" {
			return fmt.Errorf("embeddings model is required when embeddings are enabled")
		}
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}
