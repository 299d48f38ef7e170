package completion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts upstream completion calls.
	// Labels: provider (anthropic, openai), outcome (ok, timeout, rate_limited, error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refereed",
			Subsystem: "completion",
			Name:      "requests_total",
			Help:      "Total number of upstream completion requests",
		},
		[]string{"provider", "outcome"},
	)

	// RequestDuration tracks upstream completion latency.
	// Labels: provider (anthropic, openai)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "refereed",
			Subsystem: "completion",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream completion requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	// TokensTotal counts tokens reported by upstream providers.
	// Labels: provider (anthropic, openai), direction (input, output)
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refereed",
			Subsystem: "completion",
			Name:      "tokens_total",
			Help:      "Total number of tokens consumed by upstream completion requests",
		},
		[]string{"provider", "direction"},
	)
)

// observeRequest records the outcome, latency, and token usage of one
// upstream call. Token counts come from the provider's usage block, so
// failed calls contribute nothing.
func observeRequest(provider string, elapsed time.Duration, res Result, err error) {
	RequestsTotal.WithLabelValues(provider, outcomeLabel(err)).Inc()
	RequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err == nil {
		TokensTotal.WithLabelValues(provider, "input").Add(float64(res.InputTokens))
		TokensTotal.WithLabelValues(provider, "output").Add(float64(res.OutputTokens))
	}
}
