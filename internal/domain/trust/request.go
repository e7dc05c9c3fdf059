package trust

import (
	"strings"
	"time"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
)

// EvaluationRequest carries the context of one request to be scored.
type EvaluationRequest struct {
	UserID      string                 `json:"user_id" validate:"required"`
	DeviceID    string                 `json:"device_id"`
	IPAddress   string                 `json:"ip_address"`
	GeoLocation string                 `json:"geo_location"`
	UserAgent   string                 `json:"user_agent"`
	RequestTime time.Time              `json:"request_time"`
	ContextData map[string]interface{} `json:"context_data,omitempty"`
}

// ContextKeySessionID is the ContextData key that links a request to a
// continuous monitoring session.
const ContextKeySessionID = "session_id"

// Validate enforces the caller contract: a user id is mandatory.
func (r EvaluationRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.NewValidationError("MISSING_USER_ID", "user id is required for trust evaluation")
	}
	return nil
}

// SessionID returns the monitoring session id carried in ContextData, if any.
func (r EvaluationRequest) SessionID() string {
	if r.ContextData == nil {
		return ""
	}
	if v, ok := r.ContextData[ContextKeySessionID].(string); ok {
		return v
	}
	return ""
}
