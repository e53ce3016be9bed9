package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Glob patterns for the keys topokit writes: index bodies from the Debian
// client, then graphs and rankings from the default Keyer.
var defaultPatterns = []string{"debian:*", "graph:*", "ranking:*"}

// RedisCache stores entries in Redis. Expiry is handled by Redis itself.
type RedisCache struct {
	client   *redis.Client
	patterns []string
}

// NewRedisCache connects to the Redis instance at url
// (redis://[user:pass@]host:port/db) and checks it is reachable.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisCache{client: client, patterns: defaultPatterns}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, patterns: defaultPatterns}
}

// Scope limits Clear to keys under prefix, the namespace a ScopedKeyer
// adds. Index bodies are shared between namespaces and are then kept.
func (c *RedisCache) Scope(prefix string) *RedisCache {
	c.patterns = []string{prefix + "*"}
	return c
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)

// Clear deletes every key matching the cache's patterns and returns how
// many were removed.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	const batch = 500
	removed := 0
	for _, pattern := range c.patterns {
		iter := c.client.Scan(ctx, 0, pattern, batch).Iterator()
		keys := make([]string, 0, batch)
		flush := func() error {
			if len(keys) == 0 {
				return nil
			}
			n, err := c.client.Del(ctx, keys...).Result()
			removed += int(n)
			keys = keys[:0]
			return err
		}
		for iter.Next(ctx) {
			if keys = append(keys, iter.Val()); len(keys) == batch {
				if err := flush(); err != nil {
					return removed, err
				}
			}
		}
		if err := iter.Err(); err != nil {
			return removed, err
		}
		if err := flush(); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

var _ Clearer = (*RedisCache)(nil)
