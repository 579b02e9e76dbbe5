package distribution

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statsKeyPrefix = "agapay:distribution-stats:"

// StatsCache is a Redis read-through cache for per-beneficiary stats.
// Cache failures degrade to direct reads; they are logged, never surfaced.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewStatsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached stats or nil on a miss.
func (c *StatsCache) Get(ctx context.Context, beneficiaryID uuid.UUID) (*Stats, error) {
	raw, err := c.client.Get(ctx, statsKeyPrefix+beneficiaryID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Set stores stats under the beneficiary key with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, beneficiaryID uuid.UUID, stats *Stats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		c.logger.WarnContext(ctx, "marshal stats for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, statsKeyPrefix+beneficiaryID.String(), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache stats", "error", err)
	}
}

// Invalidate drops the cached stats after a create or void commits.
func (c *StatsCache) Invalidate(ctx context.Context, beneficiaryID uuid.UUID) {
	if err := c.client.Del(ctx, statsKeyPrefix+beneficiaryID.String()).Err(); err != nil {
		c.logger.WarnContext(ctx, "invalidate stats cache", "error", err)
	}
}
