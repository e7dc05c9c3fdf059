package zerotrust

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

// Config tunes the engine. Start from DefaultConfig and override fields.
type Config struct {
	BusinessHoursStart  int
	BusinessHoursEnd    int
	Location            *time.Location
	CollaboratorTimeout time.Duration
	BehaviorWindow      time.Duration
	RiskWindow          time.Duration
	BaselineMaxAge      time.Duration
	AnomalyThreshold    float64
	HighRiskKeywords    []string
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		BusinessHoursStart:  DefaultBusinessHoursStart,
		BusinessHoursEnd:    DefaultBusinessHoursEnd,
		Location:            time.Local,
		CollaboratorTimeout: DefaultCollaboratorTimeout,
		BehaviorWindow:      DefaultBehaviorWindow,
		RiskWindow:          DefaultRiskWindow,
		BaselineMaxAge:      DefaultBaselineMaxAge,
		AnomalyThreshold:    behavior.AnomalyThreshold,
		HighRiskKeywords:    access.DefaultHighRiskKeywords,
	}
}

func (c Config) withDefaults() Config {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.CollaboratorTimeout <= 0 {
		c.CollaboratorTimeout = DefaultCollaboratorTimeout
	}
	if c.BehaviorWindow <= 0 {
		c.BehaviorWindow = DefaultBehaviorWindow
	}
	if c.RiskWindow <= 0 {
		c.RiskWindow = DefaultRiskWindow
	}
	if c.AnomalyThreshold <= 0 {
		c.AnomalyThreshold = behavior.AnomalyThreshold
	}
	return c
}

// Dependencies are the collaborators of the engine. Audit, Compliance,
// Resolver, Metrics, Logger and Clock are optional.
type Dependencies struct {
	Devices    DeviceRegistry
	Locations  LocationHistory
	Threats    ThreatIntelProvider
	Behavior   BehaviorHistory
	Baselines  BaselineStore
	Sessions   SessionStore
	Audit      AuditLogger
	Compliance ComplianceChecker
	Resolver   LocationResolver
	Metrics    Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// service implements the Service interface
type service struct {
	devices    DeviceRegistry
	locations  LocationHistory
	threats    ThreatIntelProvider
	behavior   BehaviorHistory
	baselines  BaselineStore
	sessions   SessionStore
	audit      AuditLogger
	compliance ComplianceChecker
	resolver   LocationResolver

	cfg        Config
	classifier access.Classifier
	metrics    Metrics
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time

	baselineFlight singleflight.Group
}

// NewService creates a new zero-trust access engine
func NewService(deps Dependencies, cfg Config) (Service, error) {
	switch {
	case deps.Devices == nil:
		return nil, fmt.Errorf("device registry is required")
	case deps.Locations == nil:
		return nil, fmt.Errorf("location history is required")
	case deps.Threats == nil:
		return nil, fmt.Errorf("threat intel provider is required")
	case deps.Behavior == nil:
		return nil, fmt.Errorf("behavior history is required")
	case deps.Baselines == nil:
		return nil, fmt.Errorf("baseline store is required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session store is required")
	}

	cfg = cfg.withDefaults()
	if cfg.BusinessHoursStart > cfg.BusinessHoursEnd {
		return nil, fmt.Errorf("business hours start %d is after end %d", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}

	s := &service{
		devices:    deps.Devices,
		locations:  deps.Locations,
		threats:    deps.Threats,
		behavior:   deps.Behavior,
		baselines:  deps.Baselines,
		sessions:   deps.Sessions,
		audit:      deps.Audit,
		compliance: deps.Compliance,
		resolver:   deps.Resolver,
		cfg:        cfg,
		classifier: access.NewClassifier(cfg.HighRiskKeywords),
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		tracer:     otel.Tracer(tracerName),
		now:        deps.Clock,
	}

	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	return s, nil
}

// EvaluateTrustScore runs the five signal evaluators concurrently and
// aggregates their factors. Collaborator failures degrade individual factors;
// any other failure fails the whole evaluation.
func (s *service) EvaluateTrustScore(ctx context.Context, req *trust.EvaluationRequest) (*trust.Score, error) {
	if req == nil {
		return nil, errors.NewValidationError("MISSING_REQUEST", "trust evaluation request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "zerotrust.EvaluateTrustScore", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("device.id", req.DeviceID),
	))
	defer span.End()

	location := s.resolveLocation(ctx, req)
	requestTime := req.RequestTime
	if requestTime.IsZero() {
		requestTime = s.now()
	}

	evaluators := []func(context.Context) trust.Factor{
		func(ctx context.Context) trust.Factor { return s.evaluateDevice(ctx, req) },
		func(ctx context.Context) trust.Factor { return s.evaluateLocation(ctx, req, location) },
		func(ctx context.Context) trust.Factor { return s.evaluateBehavior(ctx, req.UserID) },
		func(ctx context.Context) trust.Factor { return s.evaluateTime(requestTime) },
		func(ctx context.Context) trust.Factor { return s.evaluateThreat(ctx, req) },
	}

	factors := make([]trust.Factor, len(evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for i, evaluate := range evaluators {
		i, evaluate := i, evaluate
		g.Go(func() (err error) {
			defer recoverEvaluator(&err)
			factors[i] = evaluate(gctx)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, s.evaluationFailed(ctx, span, req, err)
	}

	score := trust.Aggregate(factors, s.now())
	if s.isMonitored(ctx, req) {
		score = score.WithReasonNote(monitoredSessionNote)
	}

	for _, f := range score.Factors {
		s.metrics.ObserveFactor(f.Name, f.Score)
	}
	s.metrics.ObserveEvaluation(score.Level, time.Since(started))

	span.SetAttributes(
		attribute.Float64("trust.score", score.Score),
		attribute.String("trust.level", score.Level.String()),
	)

	s.logEvent(ctx, audit.EventTrustScoreCalculated,
		fmt.Sprintf("trust score calculated: %.3f (%s)", score.Score, score.Level),
		req.UserID, map[string]interface{}{
			"score":      score.Score,
			"level":      score.Level.String(),
			"device_id":  req.DeviceID,
			"ip_address": req.IPAddress,
		})

	s.logger.Debug("trust score calculated",
		zap.String("user_id", req.UserID),
		zap.String("device_id", req.DeviceID),
		zap.Float64("score", score.Score),
		zap.Stringer("level", score.Level))

	return &score, nil
}

func recoverEvaluator(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("signal evaluator panicked: %v", r)
	}
}

func (s *service) evaluationFailed(ctx context.Context, span trace.Span, req *trust.EvaluationRequest, cause error) error {
	span.RecordError(cause)
	span.SetStatus(codes.Error, "trust evaluation failed")

	s.logger.Error("trust evaluation failed",
		zap.String("user_id", req.UserID),
		zap.String("device_id", req.DeviceID),
		zap.String("ip_address", req.IPAddress),
		zap.Error(cause))
	s.metrics.RecordEvaluationFailure()

	// the caller's context may already be done
	s.logEvent(context.WithoutCancel(ctx), audit.EventTrustEvaluationFailed, "trust evaluation failed", req.UserID,
		map[string]interface{}{
			"device_id": req.DeviceID,
			"error":     cause.Error(),
		})

	return errors.NewEvaluationError("trust evaluation failed").WithCause(cause)
}

func (s *service) resolveLocation(ctx context.Context, req *trust.EvaluationRequest) string {
	if req.GeoLocation != "" || s.resolver == nil || req.IPAddress == "" {
		return req.GeoLocation
	}
	return lookup(ctx, s, collaboratorLocationResolve, "", func(ctx context.Context) (string, error) {
		return s.resolver.ResolveLocation(ctx, req.IPAddress)
	}, zap.String("user_id", req.UserID), zap.String("ip_address", req.IPAddress))
}

func (s *service) isMonitored(ctx context.Context, req *trust.EvaluationRequest) bool {
	sessionID := req.SessionID()
	if sessionID == "" {
		return false
	}
	monitored, _ := tryLookup(ctx, s, collaboratorSessionStore, func(ctx context.Context) (bool, error) {
		sess, found, err := s.sessions.Get(ctx, sessionID)
		return found && sess.Active && sess.UserID == req.UserID, err
	}, zap.String("session_id", sessionID))
	return monitored
}

// MakeAccessDecision maps the request's trust level and resource sensitivity
// onto a decision. Trust score staleness is the caller's responsibility.
func (s *service) MakeAccessDecision(ctx context.Context, req *access.Request) (*access.Decision, error) {
	if req == nil {
		return nil, errors.NewValidationError("MISSING_REQUEST", "access request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "zerotrust.MakeAccessDecision", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("resource", req.Resource),
	))
	defer span.End()

	level := req.TrustScore.Level
	sensitivity := s.classifier.Classify(req.Resource)
	decision := access.Decide(level, req.Resource, s.classifier)

	span.SetAttributes(
		attribute.String("trust.level", level.String()),
		attribute.String("access.decision", decision.Type.String()),
	)
	s.metrics.RecordDecision(decision.Type, sensitivity)

	s.logEvent(ctx, audit.EventAccessDecision,
		fmt.Sprintf("access %s for %s", decision.Type, req.Resource),
		req.UserID, map[string]interface{}{
			"resource":         req.Resource,
			"decision":         decision.Type.String(),
			"trust_level":      level.String(),
			"reason":           decision.Reason,
			"required_actions": decision.RequiredActions,
		})

	s.logger.Info("access decision made",
		zap.String("user_id", req.UserID),
		zap.String("resource", req.Resource),
		zap.Stringer("trust_level", level),
		zap.Stringer("decision", decision.Type))

	return &decision, nil
}

// ValidateDevice reports whether the device is registered to the user and
// passes its health check. Registry failures count as not valid.
func (s *service) ValidateDevice(ctx context.Context, deviceID, userID string) (bool, error) {
	if deviceID == "" {
		return false, errors.NewValidationError("MISSING_DEVICE_ID", "device id is required")
	}
	if userID == "" {
		return false, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}

	registered, healthy := s.deviceStatus(ctx, deviceID, userID)
	valid := registered && healthy

	s.logEvent(ctx, audit.EventDeviceValidation,
		fmt.Sprintf("device %s validation: %t", deviceID, valid),
		userID, map[string]interface{}{
			"device_id":  deviceID,
			"registered": registered,
			"healthy":    healthy,
			"valid":      valid,
		})

	return valid, nil
}

// lookup calls a collaborator under the configured timeout. On failure it
// logs, records the degradation and returns fallback.
func lookup[T any](ctx context.Context, s *service, collaborator string, fallback T, fn func(context.Context) (T, error), fields ...zap.Field) T {
	v, ok := tryLookup(ctx, s, collaborator, fn, fields...)
	if !ok {
		return fallback
	}
	return v
}

// tryLookup is lookup that also reports whether the collaborator answered.
func tryLookup[T any](ctx context.Context, s *service, collaborator string, fn func(context.Context) (T, error), fields ...zap.Field) (T, bool) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	defer cancel()

	v, err := fn(cctx)
	if err != nil {
		s.degraded(collaborator, err, fields...)
		var zero T
		return zero, false
	}
	return v, true
}

func (s *service) degraded(collaborator string, err error, fields ...zap.Field) {
	s.logger.Warn("collaborator unavailable, using conservative default",
		append(fields, zap.String("collaborator", collaborator), zap.Error(err))...)
	s.metrics.RecordDegradation(collaborator)
}

// logEvent records a security event. Audit failures never fail the caller.
func (s *service) logEvent(ctx context.Context, eventType audit.EventType, description, userID string, details map[string]interface{}) {
	s.logTenantEvent(ctx, eventType, description, userID, "", details)
}

func (s *service) logTenantEvent(ctx context.Context, eventType audit.EventType, description, userID, tenantID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}

	event, err := audit.NewSecurityEvent(eventType, description, userID)
	if err != nil {
		s.logger.Error("invalid security event", zap.String("event_type", string(eventType)), zap.Error(err))
		return
	}
	event.WithTenant(tenantID)
	for k, v := range details {
		event.WithDetail(k, v)
	}

	actx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout)
	defer cancel()

	if err := s.audit.LogSecurityEvent(actx, event); err != nil {
		s.degraded(collaboratorAudit, err,
			zap.String("event_type", string(eventType)),
			zap.String("user_id", userID))
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvaluation(trust.Level, time.Duration) {}
func (noopMetrics) ObserveFactor(string, float64) {}
func (noopMetrics) RecordEvaluationFailure() {}
func (noopMetrics) RecordDecision(access.DecisionType, access.Sensitivity) {}
func (noopMetrics) RecordDegradation(string) {}
func (noopMetrics) RecordAnomalies(int) {}
func (noopMetrics) RecordBaselineBuild(bool) {}
func (noopMetrics) AddActiveSessions(int) {}
