package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

const namespace = "zte"

// Registry holds the engine and transport collectors. Collectors are
// registered on the registry passed to NewRegistry, never the global one.
type Registry struct {
	reg *prometheus.Registry

	// Trust evaluation
	EvaluationDuration *prometheus.HistogramVec
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationFailures prometheus.Counter
	FactorScores       *prometheus.HistogramVec

	// Access decisions
	DecisionsTotal *prometheus.CounterVec

	// Behavior
	AnomaliesTotal prometheus.Counter
	BaselineBuilds *prometheus.CounterVec

	// Collaborators and sessions
	Degradations   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates all collectors on reg. A nil reg gets a fresh registry.
func NewRegistry(reg *prometheus.Registry) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		EvaluationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trust",
			Name:      "evaluation_duration_seconds",
			Help:      "Trust score evaluation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"level"}),

		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trust",
			Name:      "evaluations_total",
			Help:      "Completed trust evaluations by resulting level",
		}, []string{"level"}),

		EvaluationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trust",
			Name:      "evaluation_failures_total",
			Help:      "Trust evaluations that failed without producing a score",
		}),

		FactorScores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trust",
			Name:      "factor_score",
			Help:      "Distribution of individual trust factor scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"factor"}),

		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "decisions_total",
			Help:      "Access decisions by type and resource sensitivity",
		}, []string{"decision", "sensitivity"}),

		AnomaliesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "behavior",
			Name:      "anomalies_total",
			Help:      "Behavior anomalies detected",
		}),

		BaselineBuilds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "behavior",
			Name:      "baseline_builds_total",
			Help:      "Behavior baselines built or refreshed",
		}, []string{"refresh"}),

		Degradations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaborator",
			Name:      "degradations_total",
			Help:      "Collaborator calls that failed and fell back to a conservative default",
		}, []string{"collaborator"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitoring",
			Name:      "active_sessions",
			Help:      "Continuous monitoring sessions currently active",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		}, []string{"method", "route"}),
	}
}

// Gatherer exposes the underlying registry for the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveEvaluation(level trust.Level, duration time.Duration) {
	r.EvaluationDuration.WithLabelValues(level.String()).Observe(duration.Seconds())
	r.EvaluationsTotal.WithLabelValues(level.String()).Inc()
}

func (r *Registry) ObserveFactor(name string, score float64) {
	r.FactorScores.WithLabelValues(name).Observe(score)
}

func (r *Registry) RecordEvaluationFailure() {
	r.EvaluationFailures.Inc()
}

func (r *Registry) RecordDecision(decision access.DecisionType, sensitivity access.Sensitivity) {
	r.DecisionsTotal.WithLabelValues(decision.String(), sensitivity.String()).Inc()
}

func (r *Registry) RecordDegradation(collaborator string) {
	r.Degradations.WithLabelValues(collaborator).Inc()
}

func (r *Registry) RecordAnomalies(count int) {
	r.AnomaliesTotal.Add(float64(count))
}

func (r *Registry) RecordBaselineBuild(refresh bool) {
	r.BaselineBuilds.WithLabelValues(strconv.FormatBool(refresh)).Inc()
}

func (r *Registry) AddActiveSessions(delta int) {
	r.ActiveSessions.Add(float64(delta))
}

// ObserveHTTPRequest records one served request.
func (r *Registry) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
