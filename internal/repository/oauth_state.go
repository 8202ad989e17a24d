package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// oauthStatePrefix: oauth:state:{state} -> "1"
const oauthStatePrefix = "oauth:state:"

// OAuthStateRepository holds pending sign-in states.
type OAuthStateRepository struct {
	rdb *redis.Client
}

// NewOAuthStateRepository creates an OAuth state repository.
func NewOAuthStateRepository(rdb *redis.Client) *OAuthStateRepository {
	return &OAuthStateRepository{rdb: rdb}
}

// Save stores state for ttl.
func (r *OAuthStateRepository) Save(ctx context.Context, state string, ttl time.Duration) error {
	return cacheErr(r.rdb.Set(ctx, oauthStatePrefix+state, "1", ttl).Err())
}

// Consume deletes state and reports whether it was pending.
func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (bool, error) {
	_, err := r.rdb.GetDel(ctx, oauthStatePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, cacheErr(err)
	}
	return true, nil
}
