package access

import (
	"fmt"
	"strings"
	"time"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/trust"
)

// DecisionType is the verdict of an access decision.
type DecisionType int

const (
	DecisionAllow DecisionType = iota
	DecisionMonitor
	DecisionChallenge
	DecisionStepUp
	DecisionDeny
)

func (d DecisionType) String() string {
	switch d {
	case DecisionAllow:
		return "Allow"
	case DecisionMonitor:
		return "Monitor"
	case DecisionChallenge:
		return "Challenge"
	case DecisionStepUp:
		return "StepUp"
	case DecisionDeny:
		return "Deny"
	default:
		return "Unknown"
	}
}

func (d DecisionType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DecisionType) UnmarshalText(text []byte) error {
	for v := DecisionAllow; v <= DecisionDeny; v++ {
		if v.String() == string(text) {
			*d = v
			return nil
		}
	}
	return fmt.Errorf("unknown decision type %q", string(text))
}

// Required remediation actions
const (
	ActionMFAChallenge         = "MFA_CHALLENGE"
	ActionDeviceVerification   = "DEVICE_VERIFICATION"
	ActionStepUpAuthentication = "STEP_UP_AUTHENTICATION"
)

// ConditionRequireMonitoring is set on Monitor decisions.
const ConditionRequireMonitoring = "RequireMonitoring"

// DecisionValidity is how long an access decision may be relied upon.
const DecisionValidity = 30 * time.Minute

// Request asks for access to a resource given an already computed trust score.
// The caller must re-evaluate trust before calling when the score is expired.
type Request struct {
	UserID     string                 `json:"user_id" validate:"required"`
	Resource   string                 `json:"resource" validate:"required"`
	TrustScore trust.Score            `json:"trust_score"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the identifiers a decision cannot be made without.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.NewValidationError("MISSING_USER_ID", "user id is required for an access decision")
	}
	if strings.TrimSpace(r.Resource) == "" {
		return errors.NewValidationError("MISSING_RESOURCE", "resource is required for an access decision")
	}
	return nil
}

// Decision is the outcome of an access request.
type Decision struct {
	Allowed         bool                   `json:"allowed"`
	Type            DecisionType           `json:"decision_type"`
	Reason          string                 `json:"reason"`
	RequiredActions []string               `json:"required_actions"`
	ValidFor        time.Duration          `json:"valid_for"`
	Conditions      map[string]interface{} `json:"conditions"`
}

// HasAction reports whether the decision requires the named action.
func (d Decision) HasAction(action string) bool {
	for _, a := range d.RequiredActions {
		if a == action {
			return true
		}
	}
	return false
}

type baseOutcome struct {
	decision DecisionType
	allowed  bool
	reason   string
	actions  []string
}

var outcomes = map[trust.Level]baseOutcome{
	trust.LevelVeryHigh: {DecisionAllow, true, "High trust score allows access", nil},
	trust.LevelHigh:     {DecisionAllow, true, "High trust score allows access", nil},
	trust.LevelMedium:   {DecisionMonitor, true, "Medium trust score requires monitoring", nil},
	trust.LevelLow: {DecisionChallenge, false, "Low trust score requires additional verification",
		[]string{ActionMFAChallenge, ActionDeviceVerification}},
	trust.LevelVeryLow: {DecisionDeny, false, "Very low trust score denies access", nil},
}

// Decide maps a trust level and resource onto a decision. It is a pure
// function of its arguments.
func Decide(level trust.Level, resource string, classifier Classifier) Decision {
	base, ok := outcomes[level]
	if !ok {
		base = outcomes[trust.LevelVeryLow]
	}

	d := Decision{
		Allowed:         base.allowed,
		Type:            base.decision,
		Reason:          base.reason,
		RequiredActions: append([]string{}, base.actions...),
		ValidFor:        DecisionValidity,
		Conditions:      map[string]interface{}{},
	}

	if d.Type == DecisionMonitor {
		d.Conditions[ConditionRequireMonitoring] = true
	}

	// Escalation applies to the Allow path only.
	if d.Type == DecisionAllow && classifier.IsHighRisk(resource) {
		d.Type = DecisionStepUp
		d.Reason = "High-risk resource requires step-up authentication"
		d.RequiredActions = append(d.RequiredActions, ActionStepUpAuthentication)
	}

	return d
}
