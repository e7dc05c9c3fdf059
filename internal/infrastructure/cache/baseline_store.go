package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/behavior"
)

// MemoryBaselineStore keeps behavior baselines in process memory. Contents are
// lost on restart.
type MemoryBaselineStore struct {
	items *Store[*behavior.Baseline]
}

func NewMemoryBaselineStore() *MemoryBaselineStore {
	return &MemoryBaselineStore{items: NewStore[*behavior.Baseline](DefaultShardCount)}
}

func (m *MemoryBaselineStore) Get(_ context.Context, userID string) (*behavior.Baseline, bool, error) {
	b, ok := m.items.Get(userID)
	return b, ok, nil
}

func (m *MemoryBaselineStore) Put(_ context.Context, baseline *behavior.Baseline) error {
	if baseline == nil || baseline.UserID == "" {
		return fmt.Errorf("baseline with a user id is required")
	}
	m.items.Put(baseline.UserID, baseline)
	return nil
}

func (m *MemoryBaselineStore) Remove(_ context.Context, userID string) error {
	m.items.Remove(userID)
	return nil
}

// RedisBaselineStore shares baselines between engine replicas.
type RedisBaselineStore struct {
	docs   Documents
	logger *zap.Logger
}

func NewRedisBaselineStore(docs Documents, logger *zap.Logger) *RedisBaselineStore {
	return &RedisBaselineStore{docs: docs, logger: logger}
}

func (r *RedisBaselineStore) Get(ctx context.Context, userID string) (*behavior.Baseline, bool, error) {
	var b behavior.Baseline
	found, err := r.docs.Load(ctx, BaselinePrefix+userID, &b)
	if err != nil || !found {
		return nil, false, err
	}
	return &b, true, nil
}

func (r *RedisBaselineStore) Put(ctx context.Context, baseline *behavior.Baseline) error {
	if baseline == nil || baseline.UserID == "" {
		return fmt.Errorf("baseline with a user id is required")
	}
	if err := r.docs.Save(ctx, BaselinePrefix+baseline.UserID, baseline, BaselineTTL); err != nil {
		return err
	}
	r.logger.Debug("baseline stored",
		zap.String("user_id", baseline.UserID),
		zap.Int("metrics", len(baseline.Metrics)))
	return nil
}

func (r *RedisBaselineStore) Remove(ctx context.Context, userID string) error {
	return r.docs.Delete(ctx, BaselinePrefix+userID)
}
