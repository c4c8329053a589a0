package changeflag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed implementation of Cache for deployments
// running more than one API instance. Flags are plain keys with no TTL;
// clearing is event-driven only.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis at addr and verifies the connection.
func NewRedisCache(addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) key(stationID string, kind Kind) string {
	return fmt.Sprintf("changeflag:%s:%s", stationID, kind)
}

// MarkChanged sets the flag for (stationID, kind).
func (c *RedisCache) MarkChanged(ctx context.Context, stationID string, kind Kind) error {
	return c.client.Set(ctx, c.key(stationID, kind), "1", 0).Err()
}

// ConsumeAndClear reads and removes the flag in a single GETDEL, which
// keeps the read-then-clear atomic across API instances.
func (c *RedisCache) ConsumeAndClear(ctx context.Context, stationID string, kind Kind) (bool, error) {
	err := c.client.GetDel(ctx, c.key(stationID, kind)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Peek returns the flag without clearing it.
func (c *RedisCache) Peek(ctx context.Context, stationID string, kind Kind) (bool, error) {
	err := c.client.Get(ctx, c.key(stationID, kind)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
