package review

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FallbackVerdicts counts reviewer slots that degraded to the neutral
	// fallback, whether from a failed call or an unparseable answer.
	// Labels: role
	FallbackVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refereed",
			Subsystem: "review",
			Name:      "fallback_verdicts_total",
			Help:      "Total number of reviewer verdicts replaced by the neutral fallback",
		},
		[]string{"role"},
	)

	// BenchmarksOmitted counts comparative benchmarks dropped after a
	// failed or unparseable benchmark completion.
	BenchmarksOmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "refereed",
			Subsystem: "review",
			Name:      "benchmarks_omitted_total",
			Help:      "Total number of comparative benchmarks omitted after a failed completion",
		},
	)
)
