package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	token, err := store.Create(ctx, testSession(time.Hour))
	require.NoError(t, err)

	got, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Permissions.Has("edit_own_profile"), "permission set survives JSON round trip")

	got.OAuthState = "state-456"
	require.NoError(t, store.Save(ctx, token, got))
	reloaded, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "state-456", reloaded.OAuthState)

	require.NoError(t, store.Delete(ctx, token))
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTLMatchesExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	token, err := store.Create(ctx, testSession(time.Hour))
	require.NoError(t, err)

	ttl := mr.TTL(keyPrefix + token)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestRedisStore_ExpiredByRedis(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	token, err := store.Create(ctx, testSession(time.Hour))
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SaveAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	token, err := store.Create(ctx, testSession(time.Hour))
	require.NoError(t, err)

	sess := testSession(-time.Minute)
	require.NoError(t, store.Save(ctx, token, sess))
	assert.False(t, mr.Exists(keyPrefix+token), "saving an expired session deletes it")
}
