package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "refereed",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration observes request latency by method and route.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "refereed",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// RequestsInFlight gauges currently processing requests.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "refereed",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed.",
		},
	)
)

// observeRequests records per-request metrics. The status label uses the
// mapped status for errored handlers, since the error handler has not run
// yet when the middleware returns. c.Path() is the route template, so label
// cardinality stays bounded.
func observeRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/metrics" {
			return next(c)
		}

		RequestsInFlight.Inc()
		start := time.Now()
		err := next(c)
		RequestsInFlight.Dec()

		status := c.Response().Status
		if err != nil {
			status, _ = mapError(err)
		}

		method := c.Request().Method
		path := c.Path()
		RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}
