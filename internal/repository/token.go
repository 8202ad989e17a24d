package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// tokenUserPrefix: user:token:{uid}:{platform} -> access token
	tokenUserPrefix = "user:token:"
	// tokenInfoPrefix: token:info:{access token} -> session JSON
	tokenInfoPrefix = "token:info:"
)

// SessionInfo is what Redis keeps for a live access token.
type SessionInfo struct {
	UID      string `json:"uid"`
	DeviceID string `json:"device_id"`
	Platform string `json:"platform"`
}

// TokenRepository tracks which access tokens are still signed in.
type TokenRepository struct {
	rdb *redis.Client
}

// NewTokenRepository creates a token repository.
func NewTokenRepository(rdb *redis.Client) *TokenRepository {
	return &TokenRepository{rdb: rdb}
}

func buildUserTokenKey(uid, platform string) string {
	return fmt.Sprintf("%s%s:%s", tokenUserPrefix, uid, platform)
}

func buildTokenInfoKey(accessToken string) string {
	return tokenInfoPrefix + accessToken
}

// SaveToken records accessToken as the session of info.UID on its platform.
// A previous token of the same user and platform is revoked.
func (r *TokenRepository) SaveToken(ctx context.Context, info *SessionInfo, accessToken string, expiration time.Duration) error {
	userTokenKey := buildUserTokenKey(info.UID, info.Platform)

	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal session info: %w", err)
	}

	old, err := r.rdb.Get(ctx, userTokenKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return cacheErr(err)
	}

	pipe := r.rdb.TxPipeline()
	if old != "" && old != accessToken {
		pipe.Del(ctx, buildTokenInfoKey(old))
	}
	pipe.Set(ctx, userTokenKey, accessToken, expiration)
	pipe.Set(ctx, buildTokenInfoKey(accessToken), infoJSON, expiration)
	if _, err := pipe.Exec(ctx); err != nil {
		return cacheErr(fmt.Errorf("save token: %w", err))
	}
	return nil
}

// GetSession returns the session of accessToken, or nil when it is not
// signed in.
func (r *TokenRepository) GetSession(ctx context.Context, accessToken string) (*SessionInfo, error) {
	data, err := r.rdb.Get(ctx, buildTokenInfoKey(accessToken)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, cacheErr(err)
	}

	var info SessionInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("unmarshal session info: %w", err)
	}
	return &info, nil
}

// DeleteToken signs accessToken out.
func (r *TokenRepository) DeleteToken(ctx context.Context, uid, platform, accessToken string) error {
	userTokenKey := buildUserTokenKey(uid, platform)

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, buildTokenInfoKey(accessToken))
	// only drop the per-platform pointer if it still names this token
	cur := pipe.Get(ctx, userTokenKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return cacheErr(err)
	}
	if cur.Val() == accessToken {
		return cacheErr(r.rdb.Del(ctx, userTokenKey).Err())
	}
	return nil
}
