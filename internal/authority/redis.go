package authority

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"batchledger/internal/registry/models"
)

// Redis checks membership of a shared set, so grants made by the authority's
// own tooling apply to every replica immediately.
type Redis struct {
	client redis.Cmdable
	key    string
}

func NewRedis(client redis.Cmdable, key string) *Redis {
	return &Redis{client: client, key: key}
}

func (r *Redis) IsAuthorized(ctx context.Context, caller models.Principal) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, caller.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check authorized minter: %w", err)
	}
	return ok, nil
}

// Grant adds principals to the set.
func (r *Redis) Grant(ctx context.Context, principals ...string) error {
	if len(principals) == 0 {
		return nil
	}
	members := make([]any, len(principals))
	for i, p := range principals {
		members[i] = p
	}
	if err := r.client.SAdd(ctx, r.key, members...).Err(); err != nil {
		return fmt.Errorf("grant minters: %w", err)
	}
	return nil
}

func (r *Redis) Revoke(ctx context.Context, principal string) error {
	if err := r.client.SRem(ctx, r.key, principal).Err(); err != nil {
		return fmt.Errorf("revoke minter: %w", err)
	}
	return nil
}
