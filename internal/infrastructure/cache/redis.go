package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/go-redis/redis/v8"
)

// RedisCache is a domain.CacheRepository backed by Redis.
// Values are stored as JSON and returned decoded into interface{}.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to the Redis server at redisURL (redis://host:port/db).
// Keys are namespaced with prefix.
func NewRedisCache(redisURL, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts), prefix: prefix}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get retrieves a value from Redis
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	return decode(data)
}

// Set stores a value in Redis with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value from Redis
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Exists checks if a key exists in Redis
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return n > 0, nil
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the underlying connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
