package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/config"
)

const defaultPingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and pings it within the dial timeout.
func NewRedisClient(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	switch {
	case logger == nil:
		return nil, errors.New("logger is required")
	case cfg == nil:
		return nil, errors.New("redis config is required")
	}

	client := redis.NewClient(clientOptions(cfg))

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("connected to redis",
		zap.String("addr", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize))
	return client, nil
}

func clientOptions(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// RedisDocuments keeps each document in a Redis string.
type RedisDocuments struct {
	client redis.Cmdable
	logger *zap.Logger
}

func NewRedisDocuments(client redis.Cmdable, logger *zap.Logger) *RedisDocuments {
	return &RedisDocuments{client: client, logger: logger}
}

func (d *RedisDocuments) Load(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := d.client.Get(ctx, key).Bytes()
	return d.decode(key, raw, err, dest)
}

// Take uses GETDEL, so removal and read are one command.
func (d *RedisDocuments) Take(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := d.client.GetDel(ctx, key).Bytes()
	return d.decode(key, raw, err, dest)
}

func (d *RedisDocuments) decode(key string, raw []byte, err error, dest interface{}) (bool, error) {
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		d.logger.Warn("redis read failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (d *RedisDocuments) Save(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := d.client.Set(ctx, key, data, ttl).Err(); err != nil {
		d.logger.Warn("redis write failed", zap.String("key", key), zap.Duration("ttl", ttl), zap.Error(err))
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (d *RedisDocuments) Delete(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
