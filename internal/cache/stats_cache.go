package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/todolist/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyStats = "todolist:stats"

// Client is the subset of the go-redis API the cache uses. *redis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// StatsCache caches the /api/stats aggregate in Redis. A nil *StatsCache is a valid,
// always-missing cache, so callers need not check whether Redis is configured.
type StatsCache struct {
	rdb Client
	ttl time.Duration
}

// NewStatsCache returns a new StatsCache. A nil client yields a nil cache.
func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	if rdb == nil {
		return nil
	}
	return NewStatsCacheFromClient(rdb, ttl)
}

// NewStatsCacheFromClient returns a StatsCache over any Client. A nil client yields a
// nil cache.
func NewStatsCacheFromClient(rdb Client, ttl time.Duration) *StatsCache {
	if rdb == nil {
		return nil
	}
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached stats, or nil on a miss.
func (c *StatsCache) Get(ctx context.Context) (*models.Stats, error) {
	if c == nil {
		return nil, nil
	}
	b, err := c.rdb.Get(ctx, keyStats).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached stats: %w", err)
	}
	var stats models.Stats
	if err := json.Unmarshal(b, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	if stats.Categories == nil {
		stats.Categories = map[string]int{}
	}
	return &stats, nil
}

// Set stores stats for the configured TTL
func (c *StatsCache) Set(ctx context.Context, stats *models.Stats) error {
	if c == nil || stats == nil {
		return nil
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, keyStats, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache stats: %w", err)
	}
	return nil
}

// Invalidate drops the cached stats after a write
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, keyStats).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached stats: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable
func (c *StatsCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}
