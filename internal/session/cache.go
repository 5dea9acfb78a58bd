package session

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache implementations when a key is absent or
// expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the key-value capability the session store runs on. Implementations
// own key namespacing (prefix) and TTL enforcement.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns the remaining lifetime of key, or ErrCacheMiss when the key
	// is absent.
	TTL(ctx context.Context, key string) (time.Duration, error)

	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}
