package authstate

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/consensus-api/internal/redisx"
)

const statePrefix = "oauth:state:"

// Redis backs the state store with redis so multiple gateway instances can
// share pending authorizations. TTL of zero keeps entries until consumed.
type Redis struct {
	Client *redisx.Client
	TTL    time.Duration
}

func NewRedis(c *redisx.Client) *Redis {
	return &Redis{Client: c}
}

func (r *Redis) Put(ctx context.Context, state, userID string) error {
	return r.Client.Set(ctx, statePrefix+state, userID, r.TTL)
}

func (r *Redis) Take(ctx context.Context, state string) (string, bool, error) {
	userID, err := r.Client.TakeDel(ctx, statePrefix+state)
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return userID, true, nil
}
