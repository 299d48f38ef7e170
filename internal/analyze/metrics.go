package analyze

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallbacks counts analyses whose completion answer did not parse and were
// answered with the operation's neutral result.
var Fallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "refereed",
		Subsystem: "analyze",
		Name:      "fallbacks_total",
		Help:      "Total number of analysis responses replaced by the neutral fallback.",
	},
	[]string{"operation"},
)
