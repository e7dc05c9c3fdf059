package rest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/compliance"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/device"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/monitoring"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) EvaluateTrustScore(ctx context.Context, req *trust.EvaluationRequest) (*trust.Score, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trust.Score), args.Error(1)
}

func (m *mockService) GenerateDeviceFingerprint(ctx context.Context, req *device.FingerprintRequest) (*device.Fingerprint, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*device.Fingerprint), args.Error(1)
}

func (m *mockService) MakeAccessDecision(ctx context.Context, req *access.Request) (*access.Decision, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*access.Decision), args.Error(1)
}

func (m *mockService) ValidateDevice(ctx context.Context, deviceID, userID string) (bool, error) {
	args := m.Called(ctx, deviceID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockService) AnalyzeSecurityRisks(ctx context.Context, userID string) ([]threat.Risk, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]threat.Risk), args.Error(1)
}

func (m *mockService) StartContinuousMonitoring(ctx context.Context, userID, sessionID string) bool {
	return m.Called(ctx, userID, sessionID).Bool(0)
}

func (m *mockService) StopContinuousMonitoring(ctx context.Context, sessionID string) bool {
	return m.Called(ctx, sessionID).Bool(0)
}

func (m *mockService) GetMonitoringSession(ctx context.Context, sessionID string) (*monitoring.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monitoring.Session), args.Error(1)
}

func (m *mockService) ListActiveSessions(ctx context.Context, userID string) ([]*monitoring.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*monitoring.Session), args.Error(1)
}

func (m *mockService) AnalyzeBehaviorPatterns(ctx context.Context, userID string, window time.Duration) (*behavior.Analysis, error) {
	args := m.Called(ctx, userID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*behavior.Analysis), args.Error(1)
}

func (m *mockService) GetThreatIntelligence(ctx context.Context, ip string) ([]threat.Intelligence, error) {
	args := m.Called(ctx, ip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]threat.Intelligence), args.Error(1)
}

func (m *mockService) CheckComplianceStatus(ctx context.Context, tenantID string) (*compliance.Status, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.Status), args.Error(1)
}
