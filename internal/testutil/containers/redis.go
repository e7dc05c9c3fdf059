package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer is a Redis server for the shared stores and threat feed.
type RedisContainer struct {
	*tcredis.RedisContainer
	// Addr is host:port, ready for redis.Options.Addr.
	Addr string
}

// NewRedisContainer starts Redis 7 with RDB snapshots enabled.
func NewRedisContainer(ctx context.Context) (*RedisContainer, error) {
	c, err := tcredis.Run(ctx,
		"redis:7-alpine",
		tcredis.WithSnapshotting(10, 1),
		tcredis.WithLogLevel(tcredis.LogLevelVerbose),
	)
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("redis address: %w", err)
	}
	return &RedisContainer{RedisContainer: c, Addr: strings.TrimPrefix(uri, "redis://")}, nil
}

// RunRedis starts a server that lives as long as the test.
func RunRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return start(t, "redis", NewRedisContainer)
}
