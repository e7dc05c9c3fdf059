package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/monitoring"
)

// MemorySessionStore is the in-process table of active monitoring sessions.
type MemorySessionStore struct {
	items *Store[*monitoring.Session]
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{items: NewStore[*monitoring.Session](DefaultShardCount)}
}

func (m *MemorySessionStore) Get(_ context.Context, sessionID string) (*monitoring.Session, bool, error) {
	s, ok := m.items.Get(sessionID)
	return s, ok, nil
}

func (m *MemorySessionStore) Put(_ context.Context, session *monitoring.Session) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session with an id is required")
	}
	m.items.Put(session.SessionID, session)
	return nil
}

func (m *MemorySessionStore) Remove(_ context.Context, sessionID string) (*monitoring.Session, bool, error) {
	s, ok := m.items.Remove(sessionID)
	return s, ok, nil
}

func (m *MemorySessionStore) ListByUser(_ context.Context, userID string) ([]*monitoring.Session, error) {
	var out []*monitoring.Session
	m.items.Range(func(_ string, s *monitoring.Session) bool {
		if s.UserID == userID {
			out = append(out, s)
		}
		return true
	})
	sortSessions(out)
	return out, nil
}

// RedisSessionStore keeps monitoring sessions in Redis with a per-user index set.
type RedisSessionStore struct {
	docs   Documents
	client *redis.Client
	logger *zap.Logger
}

func NewRedisSessionStore(docs Documents, client *redis.Client, logger *zap.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		docs:   docs,
		client: client,
		logger: logger,
	}
}

func (r *RedisSessionStore) Get(ctx context.Context, sessionID string) (*monitoring.Session, bool, error) {
	var s monitoring.Session
	found, err := r.docs.Load(ctx, MonitorPrefix+sessionID, &s)
	if err != nil || !found {
		return nil, false, err
	}
	return &s, true, nil
}

func (r *RedisSessionStore) Put(ctx context.Context, session *monitoring.Session) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session with an id is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session marshal failed: %w", err)
	}

	userKey := UserMonitorsPrefix + session.UserID

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, MonitorPrefix+session.SessionID, data, MonitorTTL)
	pipe.SAdd(ctx, userKey, session.SessionID)
	pipe.Expire(ctx, userKey, MonitorTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("session put failed",
			zap.String("session_id", session.SessionID),
			zap.String("user_id", session.UserID),
			zap.Error(err))
		return fmt.Errorf("session put failed: %w", err)
	}

	return nil
}

// Remove takes the session document, so one concurrent caller wins.
func (r *RedisSessionStore) Remove(ctx context.Context, sessionID string) (*monitoring.Session, bool, error) {
	var s monitoring.Session
	found, err := r.docs.Take(ctx, MonitorPrefix+sessionID, &s)
	if err != nil || !found {
		return nil, false, err
	}

	if err := r.client.SRem(ctx, UserMonitorsPrefix+s.UserID, sessionID).Err(); err != nil {
		r.logger.Warn("failed to remove session from user index",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	return &s, true, nil
}

func (r *RedisSessionStore) ListByUser(ctx context.Context, userID string) ([]*monitoring.Session, error) {
	userKey := UserMonitorsPrefix + userID

	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("session list failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = MonitorPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("session list failed: %w", err)
	}

	var out []*monitoring.Session
	var expired []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var s monitoring.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			r.logger.Warn("skipping unreadable session", zap.String("session_id", ids[i]), zap.Error(err))
			continue
		}
		// a session id reused by another user leaves a dangling index entry
		if s.UserID != userID {
			expired = append(expired, ids[i])
			continue
		}
		out = append(out, &s)
	}

	if len(expired) > 0 {
		r.client.SRem(ctx, userKey, expired...)
	}

	sortSessions(out)
	return out, nil
}

func sortSessions(sessions []*monitoring.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
