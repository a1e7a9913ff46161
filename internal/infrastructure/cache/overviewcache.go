// Package cache provides Redis-backed caches for billing read models.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clawncore/colabwize-backend/internal/application/billing/dto"
	"github.com/clawncore/colabwize-backend/internal/shared/logger"
)

const (
	overviewKeyPrefix = "billing:overview:"
	baseOverviewTTL   = 60 * time.Second
	overviewTTLJitter = 30 * time.Second // TTL range: 60-90s (anti-stampede)
)

// RedisOverviewCache caches assembled billing overviews per user. The
// TTL is short: the overview is a dashboard read and billing mutations
// invalidate eagerly anyway.
type RedisOverviewCache struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisOverviewCache creates a new Redis-based overview cache
func NewRedisOverviewCache(client *redis.Client, logger logger.Interface) *RedisOverviewCache {
	return &RedisOverviewCache{
		client: client,
		logger: logger,
	}
}

func (c *RedisOverviewCache) key(userID uint) string {
	return fmt.Sprintf("%s%d", overviewKeyPrefix, userID)
}

// Get retrieves a cached overview; (nil, nil) on miss.
func (c *RedisOverviewCache) Get(ctx context.Context, userID uint) (*dto.OverviewResponse, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get overview from cache: %w", err)
	}

	var overview dto.OverviewResponse
	if err := json.Unmarshal(data, &overview); err != nil {
		// A decode failure means the cached shape is stale; drop it.
		c.logger.Warnw("dropping undecodable cached overview", "user_id", userID, "error", err)
		if delErr := c.client.Del(ctx, c.key(userID)).Err(); delErr != nil {
			c.logger.Warnw("failed to drop stale overview", "user_id", userID, "error", delErr)
		}
		return nil, nil
	}
	return &overview, nil
}

// Set stores the overview with a jittered TTL.
func (c *RedisOverviewCache) Set(ctx context.Context, userID uint, overview *dto.OverviewResponse) error {
	data, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("failed to encode overview: %w", err)
	}

	ttl := baseOverviewTTL + time.Duration(rand.Int63n(int64(overviewTTLJitter)))
	if err := c.client.Set(ctx, c.key(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set overview in cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached overview after a billing mutation.
func (c *RedisOverviewCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate overview cache: %w", err)
	}
	return nil
}
