// Package metrics exposes Prometheus instrumentation for the matching core.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "matchd"

var (
	// MatchesCreated counts matches materialized by any trigger path.
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_created_total",
		Help:      "Matches created by trigger, onboarding, and refresh paths.",
	})

	// MatchTransitions counts accept/decline outcomes.
	MatchTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_transitions_total",
		Help:      "Match lifecycle transitions by terminal status.",
	}, []string{"status"})

	// VerificationChecks counts verification gateway lookups by outcome.
	VerificationChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_checks_total",
		Help:      "Verification gateway lookups by result.",
	}, []string{"result"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by endpoint and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
)

// GinMiddleware records per-request latency with low-cardinality labels.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		start := time.Now()
		c.Next()
		httpRequestDuration.
			WithLabelValues(endpoint, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
