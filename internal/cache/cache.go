// Package cache keeps computed fleet summaries so the dashboard does not re-project
// every schedule of every machine on each request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
)

// DefaultTTL bounds how stale a cached summary can get when no write invalidates it.
const DefaultTTL = 5 * time.Minute

// Entry is a fleet summary together with the reference times it holds for.
type Entry struct {
	Summary    maintenance.FleetSummary `json:"summary"`
	ValidFrom  time.Time                `json:"valid_from"`
	ValidUntil time.Time                `json:"valid_until"`
}

// Covers reports whether the summary holds at reference time at.
func (e Entry) Covers(at time.Time) bool {
	return !at.Before(e.ValidFrom) && at.Before(e.ValidUntil)
}

// SummaryCache stores fleet summaries per owner. GetSummary also returns the owner's
// generation it read; SetSummary stores under that generation, so a summary computed
// before an Invalidate is never served after it.
type SummaryCache interface {
	GetSummary(ctx context.Context, ownerID string, at time.Time) (*maintenance.FleetSummary, int64, error)
	SetSummary(ctx context.Context, ownerID string, generation int64, entry Entry) error
	Invalidate(ctx context.Context, ownerID string) error
}

// RedisCache is a SummaryCache backed by Redis. Invalidation bumps a per-owner
// generation number that is part of every summary key, so stale entries are never
// read again and simply expire.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps rdb. A non-positive ttl uses DefaultTTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func generationKey(ownerID string) string {
	return fmt.Sprintf("fleet:%s:generation", ownerID)
}

func summaryKey(ownerID string, generation int64, day time.Time) string {
	return fmt.Sprintf("fleet:%s:summary:%d:%s", ownerID, generation, day.Format(time.DateOnly))
}

func (c *RedisCache) generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetSummary returns the cached summary covering at, or nil on a miss.
func (c *RedisCache) GetSummary(ctx context.Context, ownerID string, at time.Time) (*maintenance.FleetSummary, int64, error) {
	gen, err := c.generation(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	raw, err := c.rdb.Get(ctx, summaryKey(ownerID, gen, at.UTC())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, 0, fmt.Errorf("decode cached summary: %w", err)
	}
	if !entry.Covers(at) {
		return nil, gen, nil
	}
	return &entry.Summary, gen, nil
}

// SetSummary caches entry under generation. An entry never spans two UTC days.
func (c *RedisCache) SetSummary(ctx context.Context, ownerID string, generation int64, entry Entry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, summaryKey(ownerID, generation, entry.ValidFrom.UTC()), b, c.ttl).Err()
}

// Invalidate drops every cached summary of the owner.
func (c *RedisCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.rdb.Incr(ctx, generationKey(ownerID)).Err()
}

// Noop is a SummaryCache that never hits. It is used when Redis is not configured.
type Noop struct{}

func (Noop) GetSummary(context.Context, string, time.Time) (*maintenance.FleetSummary, int64, error) {
	return nil, 0, nil
}

func (Noop) SetSummary(context.Context, string, int64, Entry) error {
	return nil
}

func (Noop) Invalidate(context.Context, string) error { return nil }
