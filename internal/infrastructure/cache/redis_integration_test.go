package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/monitoring"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/config"
	"github.com/davidleathers/zero-trust-access-engine/internal/testutil/containers"
)

func TestRedisSessionStore_Integration(t *testing.T) {
	rc := containers.RunRedis(t)

	cm, err := NewCacheManager(&config.RedisConfig{
		URL:         rc.Addr,
		PoolSize:    10,
		DialTimeout: 10 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { cm.Close() })

	ctx := context.Background()
	require.NoError(t, cm.HealthCheck(ctx))

	session, err := monitoring.NewSession("user-1", "sess-1", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, cm.Sessions.Put(ctx, session))

	ttl, err := cm.Client().TTL(ctx, MonitorPrefix+"sess-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	t.Run("only one concurrent stop wins", func(t *testing.T) {
		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, ok, err := cm.Sessions.Remove(ctx, "sess-1"); err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())

		list, err := cm.Sessions.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
