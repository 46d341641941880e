package blacklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist tracks revoked access tokens and revoked accounts in Redis.
// Every key carries a TTL so entries disappear once the tokens they cover
// would have expired anyway.
type TokenBlacklist struct {
	redis *redis.Client
}

func NewTokenBlacklist(redisClient *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{
		redis: redisClient,
	}
}

func tokenKey(jti string) string {
	return fmt.Sprintf("blacklist:token:%s", jti)
}

func accountKey(accountID string) string {
	return fmt.Sprintf("blacklist:account:%s", accountID)
}

// AddAccessToken revokes a single token id for the token's remaining lifetime
func (b *TokenBlacklist) AddAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, tokenKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token id has been revoked
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.redis.Exists(ctx, tokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// RevokeAccount invalidates every token issued to the account before now.
// ttl should be at least the access token lifetime.
func (b *TokenBlacklist) RevokeAccount(ctx context.Context, accountID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	if err := b.redis.Set(ctx, accountKey(accountID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke account tokens: %w", err)
	}
	return nil
}

// IsAccountRevoked reports whether a token issued at issuedAt predates the
// account's revocation marker.
func (b *TokenBlacklist) IsAccountRevoked(ctx context.Context, accountID string, issuedAt time.Time) (bool, error) {
	ts, err := b.redis.Get(ctx, accountKey(accountID)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account revocation: %w", err)
	}

	// marker has second precision; a token issued in the same second is revoked
	return !issuedAt.After(time.Unix(ts, 0).Add(time.Second - 1)), nil
}

// Ping checks the connection for readiness probes
func (b *TokenBlacklist) Ping(ctx context.Context) error {
	return b.redis.Ping(ctx).Err()
}
