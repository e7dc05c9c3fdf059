package rest

import (
	"net/http"

	"github.com/davidleathers/zero-trust-access-engine/internal/service/zerotrust"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig holds everything the router wires together
type RouterConfig struct {
	Service zerotrust.Service
	Logger  *zap.Logger
	Version string

	// Metrics records per-route request counts and latency. Optional.
	Metrics HTTPMetrics
	// Gatherer backs /metrics. Optional.
	Gatherer prometheus.Gatherer
	// Authenticator protects the /api/v1 routes when set.
	Authenticator *Authenticator
	// RateLimiter throttles the /api/v1 routes per client IP when set.
	RateLimiter *RateLimiter
}

// NewRouter builds the HTTP handler for the access engine API
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := NewHandlers(cfg.Service, logger, cfg.Version)
	mux := http.NewServeMux()

	var protected []Middleware
	if cfg.RateLimiter != nil {
		protected = append(protected, cfg.RateLimiter.middleware(h.responder))
	}
	if cfg.Authenticator != nil {
		protected = append(protected, cfg.Authenticator.middleware(h.responder))
	}

	route := func(pattern string, handler http.HandlerFunc, extra ...Middleware) {
		chain := append([]Middleware{instrument(pattern, cfg.Metrics)}, extra...)
		mux.Handle(pattern, Chain(handler, chain...))
	}
	api := func(pattern string, handler http.HandlerFunc) {
		route(pattern, handler, protected...)
	}

	api("POST /api/v1/trust/evaluate", h.EvaluateTrust)
	api("POST /api/v1/devices/fingerprint", h.GenerateFingerprint)
	api("GET /api/v1/devices/{deviceId}/validate", h.ValidateDevice)
	api("POST /api/v1/access/decide", h.DecideAccess)
	api("GET /api/v1/users/{userId}/risks", h.AnalyzeRisks)
	api("GET /api/v1/users/{userId}/behavior", h.AnalyzeBehavior)
	api("GET /api/v1/users/{userId}/sessions", h.ListSessions)
	api("POST /api/v1/monitoring/sessions", h.StartMonitoring)
	api("GET /api/v1/monitoring/sessions/{sessionId}", h.GetSession)
	api("DELETE /api/v1/monitoring/sessions/{sessionId}", h.StopMonitoring)
	api("GET /api/v1/threats/{ip}", h.ThreatIntelligence)
	api("GET /api/v1/tenants/{tenantId}/compliance", h.ComplianceStatus)

	route("GET /health", h.Health)
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return Chain(mux,
		securityHeadersMiddleware,
		requestIDMiddleware,
		recoveryMiddleware(h.responder),
		loggingMiddleware(logger),
	)
}
