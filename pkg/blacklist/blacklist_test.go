package blacklist

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTokenBlacklist(client), mr
}

func TestAccessTokenBlacklist(t *testing.T) {
	bl, mr := newTestBlacklist(t)
	ctx := context.Background()

	require.NoError(t, bl.AddAccessToken(ctx, "jti-1", time.Now().Add(time.Minute)))
	ok, err := bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = bl.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, bl.AddAccessToken(ctx, "jti-2", time.Now().Add(-time.Minute)))
	ok, err = bl.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok, "expired tokens are not stored")
}

func TestRevokeAccount(t *testing.T) {
	bl, _ := newTestBlacklist(t)
	ctx := context.Background()

	ok, err := bl.IsAccountRevoked(ctx, "acc-1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	issued := time.Now().Add(-time.Minute)
	require.NoError(t, bl.RevokeAccount(ctx, "acc-1", time.Hour))

	ok, err = bl.IsAccountRevoked(ctx, "acc-1", issued)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bl.IsAccountRevoked(ctx, "acc-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "tokens issued after revocation stay valid")
}
