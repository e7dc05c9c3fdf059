package monitoring

import (
	"time"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
)

// Session is a window of heightened observation for one user session.
type Session struct {
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	StartTime time.Time              `json:"start_time"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Active    bool                   `json:"is_active"`
	Metrics   map[string]interface{} `json:"monitoring_metrics"`
}

// NewSession creates an active session.
func NewSession(userID, sessionID string, now time.Time) (*Session, error) {
	if userID == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}
	if sessionID == "" {
		return nil, errors.NewValidationError("MISSING_SESSION_ID", "session id is required")
	}

	return &Session{
		SessionID: sessionID,
		UserID:    userID,
		StartTime: now,
		Active:    true,
		Metrics:   make(map[string]interface{}),
	}, nil
}

// Stopped returns a copy of the session marked inactive at now.
func (s Session) Stopped(now time.Time) *Session {
	end := now
	s.Active = false
	s.EndTime = &end

	metrics := make(map[string]interface{}, len(s.Metrics)+1)
	for k, v := range s.Metrics {
		metrics[k] = v
	}
	s.Metrics = metrics
	s.Metrics["duration_seconds"] = now.Sub(s.StartTime).Seconds()
	return &s
}

// Duration is the elapsed monitoring time, up to now for active sessions.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}
