package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/replay-api/internal/positions"
	"github.com/redis/go-redis/v9"
)

// DefaultPositionsTTL applies when no TTL is configured.
const DefaultPositionsTTL = 30 * time.Minute

// PositionsStore persists assembled positions between requests.
type PositionsStore interface {
	GetPositions(ctx context.Context, id string) (*positions.ReplayPositions, error)
	SetPositions(ctx context.Context, rp *positions.ReplayPositions) error
}

// RedisCache handles reading and writing positions in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultPositionsTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// PositionsKey is the Redis key holding a replay's positions JSON.
func PositionsKey(id string) string {
	return fmt.Sprintf("replay:%s:positions", id)
}

// GetPositions returns cached positions, or nil when the key is absent.
func (c *RedisCache) GetPositions(ctx context.Context, id string) (*positions.ReplayPositions, error) {
	data, err := c.client.Get(ctx, PositionsKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rp positions.ReplayPositions
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, fmt.Errorf("unmarshaling positions: %w", err)
	}
	return &rp, nil
}

// SetPositions stores positions with the cache TTL.
func (c *RedisCache) SetPositions(ctx context.Context, rp *positions.ReplayPositions) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return fmt.Errorf("marshaling positions: %w", err)
	}
	return c.client.Set(ctx, PositionsKey(rp.ID), data, c.ttl).Err()
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
