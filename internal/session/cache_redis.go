package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on go-redis. Every key is namespaced with the
// configured prefix so multiple deployments can share one Redis.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

// NewRedisCache wraps a redis client with the given key prefix
// (default "mngkeeper:" when empty).
func NewRedisCache(client redis.Cmdable, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "mngkeeper:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	return data, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := c.client.Expire(ctx, c.key(key), ttl).Result()
	if err != nil {
		return fmt.Errorf("cache expire %s: %w", key, err)
	}
	if !ok {
		return ErrCacheMiss
	}
	return nil
}

func (c *RedisCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, c.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("cache ttl %s: %w", key, err)
	}
	return normalizeTTL(ttl)
}

// normalizeTTL translates go-redis TTL sentinels. The client surfaces the
// raw redis replies -1 (key without expiry) and -2 (missing key) as the
// durations -1 and -2 nanoseconds.
func normalizeTTL(ttl time.Duration) (time.Duration, error) {
	switch {
	case ttl >= 0:
		return ttl, nil
	case ttl == time.Duration(-1):
		return 0, nil
	default:
		return 0, ErrCacheMiss
	}
}

func (c *RedisCache) SAdd(ctx context.Context, key, member string) error {
	if err := c.client.SAdd(ctx, c.key(key), member).Err(); err != nil {
		return fmt.Errorf("cache sadd %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) SRem(ctx context.Context, key, member string) error {
	if err := c.client.SRem(ctx, c.key(key), member).Err(); err != nil {
		return fmt.Errorf("cache srem %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.client.SMembers(ctx, c.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache smembers %s: %w", key, err)
	}
	return members, nil
}
