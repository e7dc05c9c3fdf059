package zerotrust

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
	"github.com/davidleathers/zero-trust-access-engine/internal/domain/monitoring"
)

// StartContinuousMonitoring activates a session. A session already stored
// under the same id is replaced. It returns false only when the session could
// not be created or stored.
func (s *service) StartContinuousMonitoring(ctx context.Context, userID, sessionID string) bool {
	session, err := monitoring.NewSession(userID, sessionID, s.now())
	if err != nil {
		s.logger.Warn("cannot start monitoring session",
			zap.String("user_id", userID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false
	}

	_, existed, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to check existing monitoring session", zap.String("session_id", sessionID), zap.Error(err))
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		s.logger.Error("failed to start monitoring session",
			zap.String("user_id", userID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false
	}

	if !existed {
		s.metrics.AddActiveSessions(1)
	}

	s.logEvent(ctx, audit.EventMonitoringStarted,
		fmt.Sprintf("continuous monitoring started for session %s", sessionID),
		userID, map[string]interface{}{
			"session_id": sessionID,
			"replaced":   existed,
		})

	s.logger.Info("monitoring session started",
		zap.String("user_id", userID),
		zap.String("session_id", sessionID))

	return true
}

// StopContinuousMonitoring ends and removes an active session. It returns
// false when no active session has that id.
func (s *service) StopContinuousMonitoring(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}

	removed, ok, err := s.sessions.Remove(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to stop monitoring session", zap.String("session_id", sessionID), zap.Error(err))
		return false
	}
	if !ok {
		s.logger.Debug("no active monitoring session", zap.String("session_id", sessionID))
		return false
	}

	stopped := removed.Stopped(s.now())
	s.metrics.AddActiveSessions(-1)

	s.logEvent(ctx, audit.EventMonitoringStopped,
		fmt.Sprintf("continuous monitoring stopped for session %s", sessionID),
		stopped.UserID, map[string]interface{}{
			"session_id":       sessionID,
			"duration_seconds": stopped.Duration(s.now()).Seconds(),
		})

	s.logger.Info("monitoring session stopped",
		zap.String("user_id", stopped.UserID),
		zap.String("session_id", sessionID),
		zap.Duration("duration", stopped.Duration(s.now())))

	return true
}

func (s *service) GetMonitoringSession(ctx context.Context, sessionID string) (*monitoring.Session, error) {
	if sessionID == "" {
		return nil, errors.NewValidationError("MISSING_SESSION_ID", "session id is required")
	}

	session, ok, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load monitoring session").WithCause(err)
	}
	if !ok {
		return nil, errors.NewNotFoundError("monitoring session")
	}
	return session, nil
}

func (s *service) ListActiveSessions(ctx context.Context, userID string) ([]*monitoring.Session, error) {
	if userID == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list monitoring sessions").WithCause(err)
	}
	if sessions == nil {
		sessions = []*monitoring.Session{}
	}
	return sessions, nil
}
