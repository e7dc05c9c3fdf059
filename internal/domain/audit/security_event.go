package audit

import (
	"time"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/google/uuid"
)

// EventType classifies a security event emitted by the access engine.
type EventType string

const (
	EventTrustScoreCalculated  EventType = "TRUST_SCORE_CALCULATED"
	EventAccessDecision        EventType = "ACCESS_DECISION"
	EventDeviceValidation      EventType = "DEVICE_VALIDATION"
	EventBehaviorAnomaly       EventType = "BEHAVIOR_ANOMALY_DETECTED"
	EventMonitoringStarted     EventType = "CONTINUOUS_MONITORING_STARTED"
	EventMonitoringStopped     EventType = "CONTINUOUS_MONITORING_STOPPED"
	EventComplianceChecked     EventType = "COMPLIANCE_STATUS_CHECKED"
	EventTrustEvaluationFailed EventType = "TRUST_EVALUATION_FAILED"
)

var knownEventTypes = map[EventType]struct{}{
	EventTrustScoreCalculated:  {},
	EventAccessDecision:        {},
	EventDeviceValidation:      {},
	EventBehaviorAnomaly:       {},
	EventMonitoringStarted:     {},
	EventMonitoringStopped:     {},
	EventComplianceChecked:     {},
	EventTrustEvaluationFailed: {},
}

// IsValid reports whether t is one of the engine's event types.
func (t EventType) IsValid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// SecurityEvent is an immutable record of a security-relevant outcome.
type SecurityEvent struct {
	ID          uuid.UUID              `json:"id"`
	Type        EventType              `json:"event_type"`
	Description string                 `json:"description"`
	UserID      string                 `json:"user_id,omitempty"`
	TenantID    string                 `json:"tenant_id,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewSecurityEvent validates and creates an event stamped with the current time.
func NewSecurityEvent(eventType EventType, description, userID string) (*SecurityEvent, error) {
	if !eventType.IsValid() {
		return nil, errors.NewValidationError("INVALID_EVENT_TYPE", "unknown security event type: "+string(eventType))
	}
	if description == "" {
		return nil, errors.NewValidationError("MISSING_DESCRIPTION", "event description is required")
	}

	return &SecurityEvent{
		ID:          uuid.New(),
		Type:        eventType,
		Description: description,
		UserID:      userID,
		Details:     make(map[string]interface{}),
		Timestamp:   time.Now().UTC(),
	}, nil
}

// WithTenant sets the tenant the event belongs to.
func (e *SecurityEvent) WithTenant(tenantID string) *SecurityEvent {
	e.TenantID = tenantID
	return e
}

// WithDetail adds a single detail entry.
func (e *SecurityEvent) WithDetail(key string, value interface{}) *SecurityEvent {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
