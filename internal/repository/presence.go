package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// presenceKey: presence:conns:{uid} -> sorted set of live connection ids,
// scored by the unix milli deadline of each connection
const presenceKeyPrefix = "presence:conns:"

// presenceTTL bounds how long a crashed instance can keep a user online.
const presenceTTL = 10 * time.Minute

// PresenceRepository tracks live connections per user across instances.
// Every connection is a member with its own deadline.
type PresenceRepository struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewPresenceRepository creates a presence repository.
func NewPresenceRepository(rdb *redis.Client) *PresenceRepository {
	return &PresenceRepository{rdb: rdb, ttl: presenceTTL, now: time.Now}
}

// Connect registers connection connID of uid and returns the number of live
// connections.
func (r *PresenceRepository) Connect(ctx context.Context, uid, connID string) (int64, error) {
	return r.update(ctx, uid, func(pipe redis.Pipeliner, key string, deadline float64) {
		pipe.ZAdd(ctx, key, redis.Z{Score: deadline, Member: connID})
	})
}

// Disconnect unregisters connection connID of uid and returns the number of
// live connections left. Redis drops the key with its last member.
func (r *PresenceRepository) Disconnect(ctx context.Context, uid, connID string) (int64, error) {
	return r.update(ctx, uid, func(pipe redis.Pipeliner, key string, _ float64) {
		pipe.ZRem(ctx, key, connID)
	})
}

// Touch extends the deadline of a connection that is still registered.
func (r *PresenceRepository) Touch(ctx context.Context, uid, connID string) error {
	_, err := r.update(ctx, uid, func(pipe redis.Pipeliner, key string, deadline float64) {
		pipe.ZAddXX(ctx, key, redis.Z{Score: deadline, Member: connID})
	})
	return err
}

// Count returns the number of live connections of uid.
func (r *PresenceRepository) Count(ctx context.Context, uid string) (int64, error) {
	return r.update(ctx, uid, nil)
}

// update applies op, prunes expired members and counts the rest in one
// MULTI/EXEC.
func (r *PresenceRepository) update(ctx context.Context, uid string, op func(pipe redis.Pipeliner, key string, deadline float64)) (int64, error) {
	key := presenceKeyPrefix + uid
	now := r.now()
	deadline := float64(now.Add(r.ttl).UnixMilli())

	pipe := r.rdb.TxPipeline()
	if op != nil {
		op(pipe, key, deadline)
	}
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(now.UnixMilli(), 10))
	card := pipe.ZCard(ctx, key)
	pipe.PExpire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, cacheErr(err)
	}
	return card.Val(), nil
}
