package zerotrust

import (
	"context"
	"time"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/access"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/compliance"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/device"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/monitoring"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

// Service defines the zero-trust access engine
type Service interface {
	// EvaluateTrustScore scores a request from its device, location, behavior, time and threat signals
	EvaluateTrustScore(ctx context.Context, req *trust.EvaluationRequest) (*trust.Score, error)
	// GenerateDeviceFingerprint hashes device attributes and looks the hash up in the device registry
	GenerateDeviceFingerprint(ctx context.Context, req *device.FingerprintRequest) (*device.Fingerprint, error)
	// MakeAccessDecision maps a trust score and resource onto an access decision
	MakeAccessDecision(ctx context.Context, req *access.Request) (*access.Decision, error)
	// ValidateDevice reports whether a device is registered to the user and healthy
	ValidateDevice(ctx context.Context, deviceID, userID string) (bool, error)
	// AnalyzeSecurityRisks lists the risks found in the user's recent behavior
	AnalyzeSecurityRisks(ctx context.Context, userID string) ([]threat.Risk, error)
	// StartContinuousMonitoring activates a monitoring session, replacing any session with the same id
	StartContinuousMonitoring(ctx context.Context, userID, sessionID string) bool
	// StopContinuousMonitoring ends an active session; false when none exists
	StopContinuousMonitoring(ctx context.Context, sessionID string) bool
	// GetMonitoringSession returns an active session
	GetMonitoringSession(ctx context.Context, sessionID string) (*monitoring.Session, error)
	// ListActiveSessions returns the user's active sessions, oldest first
	ListActiveSessions(ctx context.Context, userID string) ([]*monitoring.Session, error)
	// AnalyzeBehaviorPatterns compares current behavior over window with the user's baseline
	AnalyzeBehaviorPatterns(ctx context.Context, userID string, window time.Duration) (*behavior.Analysis, error)
	// GetThreatIntelligence returns threat reports for an IP address
	GetThreatIntelligence(ctx context.Context, ip string) ([]threat.Intelligence, error)
	// CheckComplianceStatus evaluates every compliance framework for a tenant
	CheckComplianceStatus(ctx context.Context, tenantID string) (*compliance.Status, error)
}

// DeviceRegistry knows the devices registered to users
type DeviceRegistry interface {
	IsDeviceRegistered(ctx context.Context, deviceID, userID string) (bool, error)
	CheckDeviceHealth(ctx context.Context, deviceID string) (bool, error)
	IsKnownFingerprint(ctx context.Context, hash string) (bool, error)
	// SimilarityScore compares hash with the closest registered fingerprint, in [0,1]
	SimilarityScore(ctx context.Context, hash string) (float64, error)
}

// LocationHistory records where users have been seen
type LocationHistory interface {
	IsKnownLocation(ctx context.Context, location, userID string) (bool, error)
}

// ThreatIntelProvider supplies IP reputation and threat reports
type ThreatIntelProvider interface {
	// GetIPReputationScore returns 1 for a fully reputable address, 0 for a hostile one
	GetIPReputationScore(ctx context.Context, ip string) (float64, error)
	GetThreatIntelligence(ctx context.Context, ip string) ([]threat.Intelligence, error)
}

// BehaviorHistory supplies behavioral metrics
type BehaviorHistory interface {
	// GetHistoricalMetrics returns the samples a baseline is built from
	GetHistoricalMetrics(ctx context.Context, userID string) ([]behavior.MetricSample, error)
	// GetCurrentMetrics returns each metric's value over the trailing window
	GetCurrentMetrics(ctx context.Context, userID string, window time.Duration) (map[string]float64, error)
}

// AuditLogger records security events
type AuditLogger interface {
	LogSecurityEvent(ctx context.Context, event *audit.SecurityEvent) error
}

// ComplianceChecker evaluates one framework for a tenant. A non-compliant
// result carries a human readable issue.
type ComplianceChecker interface {
	CheckFramework(ctx context.Context, tenantID string, framework compliance.Framework) (compliant bool, issue string, err error)
}

// LocationResolver derives a location string from an IP address
type LocationResolver interface {
	ResolveLocation(ctx context.Context, ip string) (string, error)
}

// BaselineStore holds behavior baselines keyed by user id. Implementations
// must be safe for concurrent use.
type BaselineStore interface {
	Get(ctx context.Context, userID string) (*behavior.Baseline, bool, error)
	Put(ctx context.Context, baseline *behavior.Baseline) error
	Remove(ctx context.Context, userID string) error
}

// SessionStore holds active monitoring sessions keyed by session id. Remove
// must report ok == true to at most one of several concurrent callers.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*monitoring.Session, bool, error)
	Put(ctx context.Context, session *monitoring.Session) error
	Remove(ctx context.Context, sessionID string) (*monitoring.Session, bool, error)
	ListByUser(ctx context.Context, userID string) ([]*monitoring.Session, error)
}

// Metrics receives engine measurements
type Metrics interface {
	ObserveEvaluation(level trust.Level, duration time.Duration)
	ObserveFactor(name string, score float64)
	RecordEvaluationFailure()
	RecordDecision(decision access.DecisionType, sensitivity access.Sensitivity)
	RecordDegradation(collaborator string)
	RecordAnomalies(count int)
	RecordBaselineBuild(refresh bool)
	AddActiveSessions(delta int)
}
