package cache

import (
	"context"
	"time"
)

// Documents stores JSON documents under namespaced keys. Reads report a
// missing key through found rather than an error.
type Documents interface {
	Load(ctx context.Context, key string, dest interface{}) (found bool, err error)
	Save(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	// Take removes the document and decodes it. Of several concurrent
	// callers only one sees found == true.
	Take(ctx context.Context, key string, dest interface{}) (found bool, err error)
	Delete(ctx context.Context, key string) error
}

// Keyspace shared by every replica of the engine.
const (
	BaselinePrefix     = "zte:baseline:"
	MonitorPrefix      = "zte:monitor:"
	UserMonitorsPrefix = "zte:user_monitors:"
	ThreatPrefix       = "zte:threat:"
	ReputationPrefix   = "zte:reputation:"

	healthProbeKey = "zte:health_probe"
)

const (
	// BaselineTTL outlives the refresh age so a stale baseline can still be
	// scored while it is rebuilt.
	BaselineTTL = 14 * 24 * time.Hour
	// MonitorTTL bounds sessions that are never stopped.
	MonitorTTL = 24 * time.Hour
)
