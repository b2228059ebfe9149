// Package metrics exposes the platform's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "streamlaunch",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamlaunch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "streamlaunch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	streamsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "streamlaunch",
			Subsystem: "streams",
			Name:      "started_total",
			Help:      "Total number of streams started.",
		},
	)

	streamsEnded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "streamlaunch",
			Subsystem: "streams",
			Name:      "ended_total",
			Help:      "Total number of streams ended.",
		},
	)
)

func init() {
	Registry.MustRegister(httpInFlight, httpRequests, httpDuration, streamsStarted, streamsEnded)
}

// IncrementInFlight bumps the in-flight request gauge.
func IncrementInFlight() { httpInFlight.Inc() }

// DecrementInFlight lowers the in-flight request gauge.
func DecrementInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest records one completed request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordStreamStarted counts a stream start.
func RecordStreamStarted() { streamsStarted.Inc() }

// RecordStreamEnded counts a stream end.
func RecordStreamEnded() { streamsEnded.Inc() }

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
