package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/config"
)

// CacheManager owns the Redis connection and the engine stores built on it.
type CacheManager struct {
	Documents *RedisDocuments
	Baselines *RedisBaselineStore
	Sessions  *RedisSessionStore
	client    *redis.Client
	logger    *zap.Logger
}

func NewCacheManager(cfg *config.RedisConfig, logger *zap.Logger) (*CacheManager, error) {
	client, err := NewRedisClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newCacheManager(client, logger), nil
}

func newCacheManager(client *redis.Client, logger *zap.Logger) *CacheManager {
	docs := NewRedisDocuments(client, logger)
	return &CacheManager{
		Documents: docs,
		Baselines: NewRedisBaselineStore(docs, logger),
		Sessions:  NewRedisSessionStore(docs, client, logger),
		client:    client,
		logger:    logger,
	}
}

// Client is shared with the threat intelligence feed.
func (cm *CacheManager) Client() *redis.Client {
	return cm.client
}

func (cm *CacheManager) Close() error {
	if err := cm.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	cm.logger.Info("redis connection closed")
	return nil
}

// HealthCheck round-trips a short-lived probe document.
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	probe := time.Now().UTC()
	if err := cm.Documents.Save(ctx, healthProbeKey, probe, 10*time.Second); err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}

	var echoed time.Time
	found, err := cm.Documents.Take(ctx, healthProbeKey, &echoed)
	if err != nil {
		return fmt.Errorf("redis health check: %w", err)
	}
	if !found {
		return fmt.Errorf("redis health check: probe vanished")
	}
	return nil
}
