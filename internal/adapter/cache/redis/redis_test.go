package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t testing.TB) *goredis.Client {
	t.Helper()

	ctx := context.Background()

	redisCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := redisCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := redisCont.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	rdb, err := NewClient(ctx, fmt.Sprintf("%s:%d", host, port.Int()), "", 0)
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		rdb.Close()
	})

	return rdb
}

func TestNewClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rdb, err := NewClient(ctx, "127.0.0.1:1", "", 0)

	assert.Error(t, err)
	assert.Nil(t, rdb)
}

func TestNewLinkCache(t *testing.T) {
	c := NewLinkCache(nil, 0)

	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestLinkCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	rdb := setupRedis(t)
	c := NewLinkCache(rdb, time.Minute)
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		destination, ok, err := c.Get(ctx, "missing")

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, destination)
	})

	t.Run("hit", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "promo", "https://example.com/page"))

		destination, ok, err := c.Get(ctx, "promo")

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/page", destination)
	})

	t.Run("ttl", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "expiring", "https://example.com"))

		ttl, err := rdb.TTL(ctx, keyPrefix+"expiring").Result()

		assert.NoError(t, err)
		assert.InDelta(t, time.Minute, ttl, float64(5*time.Second))
	})

	t.Run("connection error", func(t *testing.T) {
		closed := goredis.NewClient(&goredis.Options{Addr: rdb.Options().Addr})
		require.NoError(t, closed.Close())

		_, ok, err := NewLinkCache(closed, time.Minute).Get(ctx, "promo")

		assert.Error(t, err)
		assert.False(t, ok)
	})
}
