package zerotrust

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/compliance"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
)

type mockDeviceRegistry struct {
	mock.Mock
}

func (m *mockDeviceRegistry) IsDeviceRegistered(ctx context.Context, deviceID, userID string) (bool, error) {
	args := m.Called(ctx, deviceID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeviceRegistry) CheckDeviceHealth(ctx context.Context, deviceID string) (bool, error) {
	args := m.Called(ctx, deviceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeviceRegistry) IsKnownFingerprint(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeviceRegistry) SimilarityScore(ctx context.Context, hash string) (float64, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(float64), args.Error(1)
}

type mockLocationHistory struct {
	mock.Mock
}

func (m *mockLocationHistory) IsKnownLocation(ctx context.Context, location, userID string) (bool, error) {
	args := m.Called(ctx, location, userID)
	return args.Bool(0), args.Error(1)
}

type mockThreatIntel struct {
	mock.Mock
}

func (m *mockThreatIntel) GetIPReputationScore(ctx context.Context, ip string) (float64, error) {
	args := m.Called(ctx, ip)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockThreatIntel) GetThreatIntelligence(ctx context.Context, ip string) ([]threat.Intelligence, error) {
	args := m.Called(ctx, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]threat.Intelligence), args.Error(1)
}

type mockBehaviorHistory struct {
	mock.Mock
}

func (m *mockBehaviorHistory) GetHistoricalMetrics(ctx context.Context, userID string) ([]behavior.MetricSample, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]behavior.MetricSample), args.Error(1)
}

func (m *mockBehaviorHistory) GetCurrentMetrics(ctx context.Context, userID string, window time.Duration) (map[string]float64, error) {
	args := m.Called(ctx, userID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

type mockAuditLogger struct {
	mock.Mock
}

func (m *mockAuditLogger) LogSecurityEvent(ctx context.Context, event *audit.SecurityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// eventsOfType returns the logged events of the given type.
func (m *mockAuditLogger) eventsOfType(eventType audit.EventType) []*audit.SecurityEvent {
	var out []*audit.SecurityEvent
	for _, call := range m.Calls {
		if call.Method != "LogSecurityEvent" {
			continue
		}
		if e := call.Arguments.Get(1).(*audit.SecurityEvent); e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type mockComplianceChecker struct {
	mock.Mock
}

func (m *mockComplianceChecker) CheckFramework(ctx context.Context, tenantID string, framework compliance.Framework) (bool, string, error) {
	args := m.Called(ctx, tenantID, framework)
	return args.Bool(0), args.String(1), args.Error(2)
}

type mockLocationResolver struct {
	mock.Mock
}

func (m *mockLocationResolver) ResolveLocation(ctx context.Context, ip string) (string, error) {
	args := m.Called(ctx, ip)
	return args.String(0), args.Error(1)
}
