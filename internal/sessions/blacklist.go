// Package sessions holds the volatile session state: a Redis deny-list for
// access tokens revoked by logout. Tokens themselves stay stateless; the
// blacklist only needs to outlive a token's remaining TTL.
package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:access:"

// Blacklist is a Redis-backed access token deny-list. A nil client disables
// it: every operation becomes a no-op.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

// BlacklistAccessToken stores the token with the given TTL. The TTL should be
// the token's remaining lifetime so the entry expires with the token.
func (b *Blacklist) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || b.client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return b.client.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// IsAccessTokenBlacklisted reports whether the token has been revoked. With
// no Redis configured it always reports false.
func (b *Blacklist) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	exists, err := b.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
