package completion

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Provider identifiers accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultTimeout           = 30 * time.Second
	defaultRequestsPerMinute = 50
	defaultBurst             = 5
)

// Config configures an upstream client. Zero fields take the package
// defaults; only APIKey is mandatory.
type Config struct {
	// Provider selects the upstream API, "anthropic" or "openai".
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout bounds one complete call including the pacing wait.
	Timeout time.Duration

	MaxTokens   int
	Temperature float64

	// RequestsPerMinute and Burst feed the client-side pacing limiter.
	RequestsPerMinute int
	Burst             int
}

// New creates the completion client for the configured provider.
func New(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic, "":
		return newAnthropicClient(cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// newPacer builds the pacing limiter that keeps outbound traffic under the
// provider's per-minute quota instead of relying on 429 responses.
func newPacer(cfg Config) *rate.Limiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)
}
