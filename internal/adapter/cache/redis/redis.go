// Package redis caches link destinations in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "shortlink:link:"
	DefaultTTL = 24 * time.Hour
)

// NewClient connects to the Redis server at addr and verifies it responds.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	const op = "redis.NewClient"

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return rdb, nil
}

// LinkCache maps slugs to destination URLs. Links never change after creation,
// so entries only leave the cache by expiring.
type LinkCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewLinkCache(rdb goredis.Cmdable, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &LinkCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached destination for slug. A miss is reported with ok set
// to false and a nil error.
func (c *LinkCache) Get(ctx context.Context, slug string) (destinationURL string, ok bool, err error) {
	const op = "adapter.cache.redis.LinkCache.Get"

	destinationURL, err = c.rdb.Get(ctx, key(slug)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	return destinationURL, true, nil
}

func (c *LinkCache) Set(ctx context.Context, slug, destinationURL string) error {
	const op = "adapter.cache.redis.LinkCache.Set"

	if err := c.rdb.Set(ctx, key(slug), destinationURL, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}

func key(slug string) string {
	return keyPrefix + slug
}
