package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	r, err := NewRedisRepository(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, s
}

func TestNewRedisRepository_BadURL(t *testing.T) {
	_, err := NewRedisRepository(context.Background(), "::not a url")
	require.ErrorContains(t, err, "parse redis url")
}

func TestRedis_SetGetDelete(t *testing.T) {
	r, s := setupRedis(t)
	ctx := context.Background()

	v, err := r.Get(ctx, "FilterData")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, "FilterData", []byte(`{"users":{"role":["admin"]}}`)))
	assert.True(t, s.Exists("webappsync:FilterData"), "keys are namespaced")

	v, err = r.Get(ctx, "FilterData")
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":{"role":["admin"]}}`, string(v))

	require.NoError(t, r.Delete(ctx, "FilterData"))
	require.NoError(t, r.Delete(ctx, "FilterData"))
	assert.False(t, s.Exists("webappsync:FilterData"))
}

func TestRedis_ListAndClearOnlyTouchPrefix(t *testing.T) {
	r, s := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set("other:key", "keep"))
	require.NoError(t, r.Set(ctx, "a", []byte("1")))
	require.NoError(t, r.Set(ctx, "b", []byte("2")))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, m)

	require.NoError(t, r.Clear(ctx))
	m, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.True(t, s.Exists("other:key"))

	require.NoError(t, r.Clear(ctx), "clearing an empty namespace is fine")
}

func TestRedis_ErrorsAreWrapped(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	r := NewRedisRepositoryWithClient(client, "")
	ctx := context.Background()
	s.Close()

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")
	require.ErrorContains(t, r.Set(ctx, "k", nil), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")
	_ = r.Close()
}
