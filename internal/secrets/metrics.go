package secrets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedactionsTotal counts redacted secrets.
// Labels: rule (gitleaks rule ID)
var RedactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "refereed",
		Subsystem: "secrets",
		Name:      "redactions_total",
		Help:      "Total number of secrets redacted from outbound content",
	},
	[]string{"rule"},
)
