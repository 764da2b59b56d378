// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Ledger operations by type and outcome.",
	}, []string{"operation", "outcome"})

	lockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "inventory",
		Subsystem: "ledger",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for per-record locks.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5},
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inventory",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "inventory",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and path.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// RecordOperation counts one ledger operation outcome.
func RecordOperation(operation, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveLockWait records time spent acquiring record locks.
func ObserveLockWait(d time.Duration) {
	lockWaitSeconds.Observe(d.Seconds())
}

// Handler serves the /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware instruments every HTTP request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusLabel(c.Writer.Status())).Inc()
		httpDurationSeconds.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func statusLabel(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
