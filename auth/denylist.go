package auth

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// denylist is consulted by AuthFilter when set. Wired at startup; nil in
// deployments without Redis, in which case logout cannot revoke tokens.
var denylist *TokenDenylist

// SetDenylist installs the revoked-token store used by AuthFilter and the
// logout handler.
func SetDenylist(d *TokenDenylist) {
	denylist = d
}

// TokenDenylist stores revoked JWT IDs in Redis until the corresponding
// token would have expired anyway.
type TokenDenylist struct {
	client *redislib.Client
	prefix string
}

// NewTokenDenylist creates a Redis-backed revoked-token store.
func NewTokenDenylist(client *redislib.Client) *TokenDenylist {
	return &TokenDenylist{
		client: client,
		prefix: "revoked_token:",
	}
}

// Revoke marks a token ID as revoked until the given expiry time. Tokens
// already past expiry need no entry.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.key(jti), "1", ttl).Err()
}

// IsRevoked reports whether a token ID has been revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.client.Get(ctx, d.key(jti)).Result()
	if err == redislib.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *TokenDenylist) key(jti string) string {
	return d.prefix + jti
}
