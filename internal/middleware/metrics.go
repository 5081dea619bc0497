package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nornweave_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nornweave_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nornweave_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"method"},
	)

	// Routing metrics
	queriesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nornweave_queries_routed_total",
			Help: "Total number of queries routed, by target count",
		},
		[]string{"targets"},
	)

	broadcastFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nornweave_broadcast_fallbacks_total",
			Help: "Total number of queries that fell back to broadcast routing",
		},
	)

	recallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nornweave_recall_latency_seconds",
			Help:    "Per-agent recall call latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"domain"},
	)

	coverageGaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nornweave_coverage_gaps_total",
			Help: "Total number of coverage gaps recorded",
		},
		[]string{"domain", "kind"},
	)

	// Fusion metrics
	fusionStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nornweave_fusion_stage_duration_seconds",
			Help:    "Fusion pipeline stage duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"stage"},
	)

	duplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nornweave_duplicates_removed_total",
			Help: "Total number of items merged away by deduplication",
		},
	)

	conflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nornweave_conflicts_detected_total",
			Help: "Total number of conflicts detected, by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	synthesisFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nornweave_synthesis_failures_total",
			Help: "Total number of synthesis calls that failed or timed out",
		},
	)

	domainContributions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nornweave_domain_contributions_total",
			Help: "Total number of queries each domain contributed items to",
		},
		[]string{"domain"},
	)
)

// MetricsConfig configures the metrics middleware
type MetricsConfig struct {
	// Skip function
	Skip func(*fiber.Ctx) bool
}

// DefaultMetricsConfig returns default metrics config
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Skip: HealthSkipper,
	}
}

// MetricsMiddleware creates a Prometheus metrics middleware
type MetricsMiddleware struct {
	config MetricsConfig
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(config MetricsConfig) *MetricsMiddleware {
	return &MetricsMiddleware{
		config: config,
	}
}

// Handler returns the metrics handler
func (m *MetricsMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()
		path := c.Route().Path

		httpActiveRequests.WithLabelValues(method).Inc()
		defer httpActiveRequests.WithLabelValues(method).Dec()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// RecordQueryRouted records a routed query with its target count
func RecordQueryRouted(targetCount int) {
	queriesRouted.WithLabelValues(strconv.Itoa(targetCount)).Inc()
}

// RecordBroadcastFallback records a broadcast routing fallback
func RecordBroadcastFallback() {
	broadcastFallbacks.Inc()
}

// RecordRecallLatency records one agent recall call's latency
func RecordRecallLatency(domain string, duration time.Duration) {
	recallLatency.WithLabelValues(domain).Observe(duration.Seconds())
}

// RecordCoverageGap records a coverage gap by kind (timeout, transport, cancelled)
func RecordCoverageGap(domain, kind string) {
	coverageGaps.WithLabelValues(domain, kind).Inc()
}

// RecordFusionStage records a fusion stage duration
func RecordFusionStage(stage string, duration time.Duration) {
	fusionStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDuplicatesRemoved records items merged away by deduplication
func RecordDuplicatesRemoved(count int) {
	duplicatesRemoved.Add(float64(count))
}

// RecordConflict records a detected conflict and its outcome
func RecordConflict(strategy string, resolved bool) {
	outcome := "flagged"
	if resolved {
		outcome = "resolved"
	}
	conflictsDetected.WithLabelValues(strategy, outcome).Inc()
}

// RecordSynthesisFailure records a failed or timed-out synthesis call
func RecordSynthesisFailure() {
	synthesisFailures.Inc()
}

// RecordDomainContribution records that a domain contributed items to a query
func RecordDomainContribution(domain string) {
	domainContributions.WithLabelValues(domain).Inc()
}
