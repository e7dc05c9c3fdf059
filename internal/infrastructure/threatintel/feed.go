package threatintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/threat"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/cache"
)

// DefaultReputation is reported for addresses the feed has never scored.
const DefaultReputation = 0.5

// Feed serves IP reputation and threat reports ingested into Redis.
//
// Reputation is stored as a decimal string under zte:reputation:<ip>.
// Threat reports are JSON entries of a list under zte:threat:<ip>.
type Feed struct {
	client            *redis.Client
	logger            *zap.Logger
	defaultReputation float64
}

func NewFeed(client *redis.Client, logger *zap.Logger) *Feed {
	return &Feed{
		client:            client,
		logger:            logger,
		defaultReputation: DefaultReputation,
	}
}

// GetIPReputationScore returns the stored score for ip, or DefaultReputation
// when none is stored.
func (f *Feed) GetIPReputationScore(ctx context.Context, ip string) (float64, error) {
	raw, err := f.client.Get(ctx, cache.ReputationPrefix+ip).Result()
	if errors.Is(err, redis.Nil) {
		return f.defaultReputation, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read ip reputation: %w", err)
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed reputation for %s: %w", ip, err)
	}
	return score, nil
}

// GetThreatIntelligence returns every report stored for ip. Malformed entries
// are skipped.
func (f *Feed) GetThreatIntelligence(ctx context.Context, ip string) ([]threat.Intelligence, error) {
	entries, err := f.client.LRange(ctx, cache.ThreatPrefix+ip, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read threat reports: %w", err)
	}

	threats := make([]threat.Intelligence, 0, len(entries))
	for _, entry := range entries {
		var intel threat.Intelligence
		if err := json.Unmarshal([]byte(entry), &intel); err != nil {
			f.logger.Warn("skipping malformed threat report",
				zap.String("ip_address", ip),
				zap.Error(err))
			continue
		}
		threats = append(threats, intel)
	}
	return threats, nil
}

// SetReputation stores a reputation score in [0,1] for ip.
func (f *Feed) SetReputation(ctx context.Context, ip string, score float64, ttl time.Duration) error {
	if score < 0 || score > 1 {
		return fmt.Errorf("reputation %v out of range [0,1]", score)
	}
	return f.client.Set(ctx, cache.ReputationPrefix+ip, strconv.FormatFloat(score, 'f', -1, 64), ttl).Err()
}

// Report appends a threat report for its address. A positive ttl resets the
// expiry of the address's report list.
func (f *Feed) Report(ctx context.Context, intel threat.Intelligence, ttl time.Duration) error {
	if intel.IPAddress == "" {
		return fmt.Errorf("threat report has no ip address")
	}

	data, err := json.Marshal(intel)
	if err != nil {
		return fmt.Errorf("failed to marshal threat report: %w", err)
	}

	key := cache.ThreatPrefix + intel.IPAddress
	pipe := f.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store threat report: %w", err)
	}
	return nil
}

// Clear removes everything known about ip.
func (f *Feed) Clear(ctx context.Context, ip string) error {
	return f.client.Del(ctx, cache.ReputationPrefix+ip, cache.ThreatPrefix+ip).Err()
}
