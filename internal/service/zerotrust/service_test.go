package zerotrust

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	domainerrors "github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/cache"
)

var (
	businessHour = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	offHour      = time.Date(2026, 5, 4, 2, 0, 0, 0, time.UTC)
	errUnavail   = errors.New("collaborator unavailable")
)

type fixture struct {
	devices    *mockDeviceRegistry
	locations  *mockLocationHistory
	threats    *mockThreatIntel
	behavior   *mockBehaviorHistory
	audit      *mockAuditLogger
	compliance *mockComplianceChecker
	resolver   *mockLocationResolver
	baselines  *cache.MemoryBaselineStore
	sessions   *cache.MemorySessionStore
	now        time.Time
	cfg        Config
}

func newFixture() *fixture {
	cfg := DefaultConfig()
	cfg.Location = time.UTC

	f := &fixture{
		devices:    new(mockDeviceRegistry),
		locations:  new(mockLocationHistory),
		threats:    new(mockThreatIntel),
		behavior:   new(mockBehaviorHistory),
		audit:      new(mockAuditLogger),
		compliance: new(mockComplianceChecker),
		resolver:   new(mockLocationResolver),
		baselines:  cache.NewMemoryBaselineStore(),
		sessions:   cache.NewMemorySessionStore(),
		now:        businessHour,
		cfg:        cfg,
	}
	f.audit.On("LogSecurityEvent", mock.Anything, mock.AnythingOfType("*audit.SecurityEvent")).Return(nil).Maybe()
	return f
}

func (f *fixture) service(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(Dependencies{
		Devices:    f.devices,
		Locations:  f.locations,
		Threats:    f.threats,
		Behavior:   f.behavior,
		Baselines:  f.baselines,
		Sessions:   f.sessions,
		Audit:      f.audit,
		Compliance: f.compliance,
		Resolver:   f.resolver,
		Logger:     zaptest.NewLogger(t),
		Clock:      func() time.Time { return f.now },
	}, f.cfg)
	require.NoError(t, err)
	return svc
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.devices.AssertExpectations(t)
	f.locations.AssertExpectations(t)
	f.threats.AssertExpectations(t)
	f.behavior.AssertExpectations(t)
	f.compliance.AssertExpectations(t)
}

type signals struct {
	registered, healthy bool
	knownLocation       bool
	reputation          float64
	threats             []threat.Intelligence
}

// trustedSignals is a registered healthy device on a known location with a
// reputable address and no threats.
var trustedSignals = signals{registered: true, healthy: true, knownLocation: true, reputation: 0.9}

// untrustedSignals is an unregistered device on an unseen location.
var untrustedSignals = signals{reputation: 0.3}

func (f *fixture) expectSignals(s signals) {
	f.devices.On("IsDeviceRegistered", mock.Anything, "device-1", "user-1").Return(s.registered, nil)
	f.devices.On("CheckDeviceHealth", mock.Anything, "device-1").Return(s.healthy, nil)
	f.locations.On("IsKnownLocation", mock.Anything, "US/Austin", "user-1").Return(s.knownLocation, nil)
	f.threats.On("GetIPReputationScore", mock.Anything, "198.51.100.7").Return(s.reputation, nil)
	threats := s.threats
	if threats == nil {
		threats = []threat.Intelligence{}
	}
	f.threats.On("GetThreatIntelligence", mock.Anything, "198.51.100.7").Return(threats, nil)
}

func (f *fixture) storeBaseline(t *testing.T, metrics map[string]float64, updatedAt time.Time) {
	t.Helper()
	require.NoError(t, f.baselines.Put(context.Background(), &behavior.Baseline{
		UserID:      "user-1",
		Metrics:     metrics,
		SampleCount: 10,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}))
}

func evaluationRequest(at time.Time) *trust.EvaluationRequest {
	return &trust.EvaluationRequest{
		UserID:      "user-1",
		DeviceID:    "device-1",
		IPAddress:   "198.51.100.7",
		GeoLocation: "US/Austin",
		UserAgent:   "Mozilla/5.0",
		RequestTime: at,
	}
}

func factorScore(t *testing.T, score *trust.Score, name string) float64 {
	t.Helper()
	f, ok := score.Factor(name)
	require.True(t, ok, "factor %s missing", name)
	return f.Score
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Dependencies{}, DefaultConfig())
	assert.Error(t, err)

	f := newFixture()
	cfg := DefaultConfig()
	cfg.BusinessHoursStart = 18
	_, err = NewService(Dependencies{
		Devices: f.devices, Locations: f.locations, Threats: f.threats,
		Behavior: f.behavior, Baselines: f.baselines, Sessions: f.sessions,
	}, cfg)
	assert.Error(t, err)
}

func TestService_EvaluateTrustScore_Scenarios(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		signals       signals
		at            time.Time
		setup         func(t *testing.T, f *fixture)
		expectedScore float64
		expectedLevel trust.Level
		resource      string
		expectedType  access.DecisionType
	}{
		{
			name:    "trusted user without baseline on low-risk resource",
			signals: trustedSignals,
			at:      businessHour,
			setup: func(t *testing.T, f *fixture) {
				f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)
			},
			expectedScore: 0.792,
			expectedLevel: trust.LevelHigh,
			resource:      "reports",
			expectedType:  access.DecisionAllow,
		},
		{
			name:    "trusted user with matching baseline",
			signals: trustedSignals,
			at:      businessHour,
			setup: func(t *testing.T, f *fixture) {
				f.storeBaseline(t, map[string]float64{"requests_per_minute": 10}, businessHour.Add(-time.Hour))
				f.behavior.On("GetCurrentMetrics", mock.Anything, "user-1", time.Hour).
					Return(map[string]float64{"requests_per_minute": 11}, nil)
			},
			expectedScore: 0.882,
			expectedLevel: trust.LevelVeryHigh,
			resource:      "reports",
			expectedType:  access.DecisionAllow,
		},
		{
			name:    "trusted user on admin resource steps up",
			signals: trustedSignals,
			at:      businessHour,
			setup: func(t *testing.T, f *fixture) {
				f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)
			},
			expectedScore: 0.792,
			expectedLevel: trust.LevelHigh,
			resource:      "admin-panel",
			expectedType:  access.DecisionStepUp,
		},
		{
			name:    "unknown device off hours with anomalous behavior is challenged",
			signals: untrustedSignals,
			at:      offHour,
			setup: func(t *testing.T, f *fixture) {
				f.storeBaseline(t, map[string]float64{"requests_per_minute": 10}, businessHour.Add(-time.Hour))
				f.behavior.On("GetCurrentMetrics", mock.Anything, "user-1", time.Hour).
					Return(map[string]float64{"requests_per_minute": 40}, nil)
			},
			// 0.3*.25 + 0.32*.20 + 0*.30 + 0.4*.15 + 0.8*.10
			expectedScore: 0.279,
			expectedLevel: trust.LevelLow,
			resource:      "reports",
			expectedType:  access.DecisionChallenge,
		},
		{
			name:    "unknown device off hours without baseline is only monitored",
			signals: untrustedSignals,
			at:      offHour,
			setup: func(t *testing.T, f *fixture) {
				f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)
			},
			expectedScore: 0.429,
			expectedLevel: trust.LevelMedium,
			resource:      "reports",
			expectedType:  access.DecisionMonitor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.expectSignals(tt.signals)
			tt.setup(t, f)
			svc := f.service(t)

			score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(tt.at))
			require.NoError(t, err)
			assert.InDelta(t, tt.expectedScore, score.Score, 1e-9)
			assert.Equal(t, tt.expectedLevel, score.Level)
			assert.Equal(t, trust.ScoreValidity, score.ValidFor)
			assert.Equal(t, f.now, score.CalculatedAt)
			require.Len(t, score.Factors, 5)

			decision, err := svc.MakeAccessDecision(ctx, &access.Request{
				UserID:     "user-1",
				Resource:   tt.resource,
				TrustScore: *score,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedType, decision.Type)
			if tt.expectedType == access.DecisionStepUp {
				assert.True(t, decision.HasAction(access.ActionStepUpAuthentication))
			}

			f.assertExpectations(t)
			assert.Len(t, f.audit.eventsOfType(audit.EventTrustScoreCalculated), 1)
			assert.Len(t, f.audit.eventsOfType(audit.EventAccessDecision), 1)
		})
	}
}

func TestService_EvaluateTrustScore_NewUserBuildsBaseline(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.expectSignals(trustedSignals)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{
		{Timestamp: businessHour.Add(-48 * time.Hour), Values: map[string]float64{"requests_per_minute": 8}},
		{Timestamp: businessHour.Add(-24 * time.Hour), Values: map[string]float64{"requests_per_minute": 12}},
	}, nil).Once()
	f.behavior.On("GetCurrentMetrics", mock.Anything, "user-1", time.Hour).
		Return(map[string]float64{"requests_per_minute": 10}, nil).Once()
	svc := f.service(t)

	first, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)
	assert.Equal(t, 0.5, factorScore(t, first, trust.FactorBehavioral))

	baseline, ok, err := f.baselines.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, baseline.Metrics["requests_per_minute"])
	assert.Equal(t, businessHour, baseline.CreatedAt)

	second, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)
	assert.Equal(t, 0.8, factorScore(t, second, trust.FactorBehavioral))

	f.assertExpectations(t)
}

func TestService_EvaluateTrustScore_SevereThreat(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	s := trustedSignals
	s.threats = []threat.Intelligence{
		{Severity: threat.SeverityLow, Source: "feed-a", IPAddress: "198.51.100.7"},
		{Severity: threat.SeverityCritical, Source: "feed-b", IPAddress: "198.51.100.7"},
	}
	f.expectSignals(s)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)
	svc := f.service(t)

	score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)
	assert.Equal(t, ThreatPresentScore, factorScore(t, score, trust.FactorThreat))
	assert.InDelta(t, 1.0, factorScore(t, score, trust.FactorDevice), 1e-9)
}

func TestService_EvaluateTrustScore_CollaboratorFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.devices.On("IsDeviceRegistered", mock.Anything, "device-1", "user-1").Return(false, errUnavail)
	f.devices.On("CheckDeviceHealth", mock.Anything, "device-1").Return(false, errUnavail)
	f.locations.On("IsKnownLocation", mock.Anything, "US/Austin", "user-1").Return(false, errUnavail)
	f.threats.On("GetIPReputationScore", mock.Anything, "198.51.100.7").Return(0.0, errUnavail)
	f.threats.On("GetThreatIntelligence", mock.Anything, "198.51.100.7").Return(nil, errUnavail)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return(nil, errUnavail)
	svc := f.service(t)

	score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)

	assert.Equal(t, 0.3, factorScore(t, score, trust.FactorDevice))
	assert.InDelta(t, 0.2, factorScore(t, score, trust.FactorLocation), 1e-9)
	assert.Equal(t, 0.5, factorScore(t, score, trust.FactorBehavioral))
	assert.Equal(t, 0.8, factorScore(t, score, trust.FactorTime))
	assert.Equal(t, 0.2, factorScore(t, score, trust.FactorThreat))
	assert.InDelta(t, 0.405, score.Score, 1e-9)

	_, ok, _ := f.baselines.Get(ctx, "user-1")
	assert.False(t, ok, "failed build must not cache a baseline")
}

func TestService_EvaluateTrustScore_SlowCollaboratorTimesOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.cfg.CollaboratorTimeout = 20 * time.Millisecond
	f.expectSignals(trustedSignals)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)

	// replace the registration answer with one that blocks until the deadline
	f.devices.ExpectedCalls = nil
	f.devices.On("IsDeviceRegistered", mock.Anything, "device-1", "user-1").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(false, context.DeadlineExceeded)
	f.devices.On("CheckDeviceHealth", mock.Anything, "device-1").Return(true, nil)
	svc := f.service(t)

	start := time.Now()
	score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.InDelta(t, 0.6, factorScore(t, score, trust.FactorDevice), 1e-9)
}

func TestService_EvaluateTrustScore_InternalFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.devices.On("IsDeviceRegistered", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Maybe()
	f.devices.On("CheckDeviceHealth", mock.Anything, mock.Anything).Return(true, nil).Maybe()
	f.threats.On("GetIPReputationScore", mock.Anything, mock.Anything).Return(0.9, nil).Maybe()
	f.threats.On("GetThreatIntelligence", mock.Anything, mock.Anything).Return([]threat.Intelligence{}, nil).Maybe()
	f.behavior.On("GetHistoricalMetrics", mock.Anything, mock.Anything).Return([]behavior.MetricSample{}, nil).Maybe()
	f.locations.On("IsKnownLocation", mock.Anything, "US/Austin", "user-1").
		Run(func(mock.Arguments) { panic("corrupt location index") }).
		Return(false, nil)
	svc := f.service(t)

	score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	assert.Nil(t, score)
	require.Error(t, err)

	var appErr *domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "TRUST_EVALUATION_FAILED", appErr.Code)
	assert.Len(t, f.audit.eventsOfType(audit.EventTrustEvaluationFailed), 1)
	assert.Empty(t, f.audit.eventsOfType(audit.EventTrustScoreCalculated))
}

func TestService_EvaluateTrustScore_Validation(t *testing.T) {
	f := newFixture()
	svc := f.service(t)

	_, err := svc.EvaluateTrustScore(context.Background(), &trust.EvaluationRequest{DeviceID: "device-1"})
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))

	_, err = svc.EvaluateTrustScore(context.Background(), nil)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))

	// no collaborator may be consulted for an invalid request
	f.assertExpectations(t)
	assert.Empty(t, f.devices.Calls)
}

func TestService_EvaluateTrustScore_ResolvesLocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.expectSignals(trustedSignals)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)
	f.resolver.On("ResolveLocation", mock.Anything, "198.51.100.7").Return("US/Austin", nil).Once()
	svc := f.service(t)

	req := evaluationRequest(businessHour)
	req.GeoLocation = ""

	score, err := svc.EvaluateTrustScore(ctx, req)
	require.NoError(t, err)
	assert.InDelta(t, 0.96, factorScore(t, score, trust.FactorLocation), 1e-9)
	f.resolver.AssertExpectations(t)
}

func TestService_EvaluateTrustScore_StaleBaselineIsRefreshed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.expectSignals(trustedSignals)
	created := businessHour.Add(-30 * 24 * time.Hour)
	require.NoError(t, f.baselines.Put(ctx, &behavior.Baseline{
		UserID:    "user-1",
		Metrics:   map[string]float64{"requests_per_minute": 10},
		CreatedAt: created,
		UpdatedAt: businessHour.Add(-8 * 24 * time.Hour),
	}))
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{
		{Values: map[string]float64{"requests_per_minute": 20}},
	}, nil).Once()
	f.behavior.On("GetCurrentMetrics", mock.Anything, "user-1", time.Hour).
		Return(map[string]float64{"requests_per_minute": 10}, nil)
	svc := f.service(t)

	score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)
	// the stale baseline still scores this request
	assert.Equal(t, 0.8, factorScore(t, score, trust.FactorBehavioral))

	refreshed, ok, err := f.baselines.Get(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20.0, refreshed.Metrics["requests_per_minute"])
	assert.Equal(t, businessHour, refreshed.UpdatedAt)
	assert.Equal(t, created, refreshed.CreatedAt)
	f.assertExpectations(t)
}

func TestService_EvaluateTrustScore_ConcurrentNewUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.devices.On("IsDeviceRegistered", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.devices.On("CheckDeviceHealth", mock.Anything, mock.Anything).Return(true, nil)
	f.locations.On("IsKnownLocation", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	f.threats.On("GetIPReputationScore", mock.Anything, mock.Anything).Return(0.9, nil)
	f.threats.On("GetThreatIntelligence", mock.Anything, mock.Anything).Return([]threat.Intelligence{}, nil)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, mock.Anything).Return([]behavior.MetricSample{
		{Values: map[string]float64{"requests_per_minute": 10}},
	}, nil)
	f.behavior.On("GetCurrentMetrics", mock.Anything, mock.Anything, time.Hour).
		Return(map[string]float64{"requests_per_minute": 10}, nil)
	svc := f.service(t)

	users := []string{"user-a", "user-b", "user-c", "user-d"}
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := evaluationRequest(businessHour)
			req.UserID = users[i%len(users)]
			score, err := svc.EvaluateTrustScore(ctx, req)
			assert.NoError(t, err)
			assert.NotNil(t, score)
		}(i)
	}
	wg.Wait()

	for _, u := range users {
		_, ok, err := f.baselines.Get(ctx, u)
		require.NoError(t, err)
		assert.True(t, ok, "baseline for %s", u)
	}
}

func TestService_EvaluateTrustScore_MonitoredSessionNote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.expectSignals(trustedSignals)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil).Maybe()
	f.behavior.On("GetCurrentMetrics", mock.Anything, "user-1", time.Hour).Return(map[string]float64{}, nil).Maybe()
	svc := f.service(t)

	require.True(t, svc.StartContinuousMonitoring(ctx, "user-1", "sess-1"))

	req := evaluationRequest(businessHour)
	req.ContextData = map[string]interface{}{trust.ContextKeySessionID: "sess-1"}

	score, err := svc.EvaluateTrustScore(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, score.Reason, monitoredSessionNote)

	req.ContextData[trust.ContextKeySessionID] = "sess-unknown"
	score, err = svc.EvaluateTrustScore(ctx, req)
	require.NoError(t, err)
	assert.NotContains(t, score.Reason, monitoredSessionNote)
}

func TestService_MakeAccessDecision(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name            string
		level           trust.Level
		resource        string
		expectedType    access.DecisionType
		expectedAllowed bool
		expectedActions []string
	}{
		{"very high allows", trust.LevelVeryHigh, "reports", access.DecisionAllow, true, []string{}},
		{"medium monitors", trust.LevelMedium, "reports", access.DecisionMonitor, true, []string{}},
		{"low challenges", trust.LevelLow, "reports", access.DecisionChallenge, false,
			[]string{access.ActionMFAChallenge, access.ActionDeviceVerification}},
		{"very low denies", trust.LevelVeryLow, "reports", access.DecisionDeny, false, []string{}},
		{"high on settings steps up", trust.LevelHigh, "Account-SETTINGS", access.DecisionStepUp, true,
			[]string{access.ActionStepUpAuthentication}},
		{"medium on admin is not escalated", trust.LevelMedium, "admin", access.DecisionMonitor, true, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := f.service(t)

			decision, err := svc.MakeAccessDecision(ctx, &access.Request{
				UserID:     "user-1",
				Resource:   tt.resource,
				TrustScore: trust.Score{Level: tt.level},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedType, decision.Type)
			assert.Equal(t, tt.expectedAllowed, decision.Allowed)
			assert.Equal(t, tt.expectedActions, decision.RequiredActions)
			assert.Equal(t, access.DecisionValidity, decision.ValidFor)

			events := f.audit.eventsOfType(audit.EventAccessDecision)
			require.Len(t, events, 1)
			assert.Equal(t, tt.resource, events[0].Details["resource"])
			assert.Equal(t, tt.level.String(), events[0].Details["trust_level"])
		})
	}

	t.Run("missing resource", func(t *testing.T) {
		svc := newFixture().service(t)
		_, err := svc.MakeAccessDecision(ctx, &access.Request{UserID: "user-1"})
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
	})
}

func TestService_AuditFailureDoesNotFailEvaluation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.audit.ExpectedCalls = nil
	f.audit.On("LogSecurityEvent", mock.Anything, mock.Anything).Return(errUnavail)
	f.expectSignals(trustedSignals)
	f.behavior.On("GetHistoricalMetrics", mock.Anything, "user-1").Return([]behavior.MetricSample{}, nil)
	svc := f.service(t)

	score, err := svc.EvaluateTrustScore(ctx, evaluationRequest(businessHour))
	require.NoError(t, err)
	assert.NotNil(t, score)

	decision, err := svc.MakeAccessDecision(ctx, &access.Request{UserID: "user-1", Resource: "reports", TrustScore: *score})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
