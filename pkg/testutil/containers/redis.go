//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// RedisContainer backs the Redis height source and the Redis authority
// gateway in integration tests.
type RedisContainer struct {
	Container testcontainers.Container
	Client    *redis.Client
}

// NewRedisContainer starts Redis and returns a connected client. The
// container is shared through the Manager; Ryuk reaps it.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	fail := func(msg string, err error) {
		_ = container.Terminate(ctx)
		t.Fatalf("%s: %v", msg, err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		fail("redis connection string", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		fail("parse redis url", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		fail("ping redis", err)
	}
	return &RedisContainer{Container: container, Client: client}
}

// Reset drops every key so each test starts at height zero with an empty
// allowlist.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}

// SeedHeight stores h under key the way the height source reads it.
func (r *RedisContainer) SeedHeight(ctx context.Context, key string, h uint64) error {
	return r.Client.Set(ctx, key, h, 0).Err()
}

// SeedAllowlist adds principals to the authorized-minter set at key.
func (r *RedisContainer) SeedAllowlist(ctx context.Context, key string, principals ...string) error {
	if len(principals) == 0 {
		return nil
	}
	members := make([]any, len(principals))
	for i, p := range principals {
		members[i] = p
	}
	return r.Client.SAdd(ctx, key, members...).Err()
}
