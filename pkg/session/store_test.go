package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/callgate/pkg/session"
)

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisStore(client, session.WithKeyPrefix("test:")), mr
}

func stores(t *testing.T) map[string]session.Store {
	t.Helper()
	rs, _ := newRedisStore(t)
	ms := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = ms.Close() })
	return map[string]session.Store{"redis": rs, "memory": ms}
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("missing key yields empty data", func(t *testing.T) {
				data, err := store.Get(ctx, "missing")
				require.NoError(t, err)
				assert.NotNil(t, data)
				assert.Empty(t, data)
			})

			t.Run("merge keeps old keys and new wins", func(t *testing.T) {
				_, err := store.Set(ctx, "merge", session.Data{"a": float64(1), "b": "x"}, false, time.Minute)
				require.NoError(t, err)

				stored, err := store.Set(ctx, "merge", session.Data{"b": "y", "c": true}, true, time.Minute)
				require.NoError(t, err)
				assert.Equal(t, session.Data{"a": float64(1), "b": "y", "c": true}, stored)

				loaded, err := store.Get(ctx, "merge")
				require.NoError(t, err)
				assert.Equal(t, stored, loaded)
			})

			t.Run("overwrite drops old keys", func(t *testing.T) {
				_, err := store.Set(ctx, "overwrite", session.Data{"a": float64(1)}, false, 0)
				require.NoError(t, err)
				_, err = store.Set(ctx, "overwrite", session.Data{"b": float64(2)}, false, 0)
				require.NoError(t, err)

				loaded, err := store.Get(ctx, "overwrite")
				require.NoError(t, err)
				assert.Equal(t, session.Data{"b": float64(2)}, loaded)
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				_, err := store.Set(ctx, "del", session.Data{"a": "b"}, false, time.Minute)
				require.NoError(t, err)

				n, err := store.Delete(ctx, "del")
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)

				n, err = store.Delete(ctx, "del")
				require.NoError(t, err)
				assert.Zero(t, n)

				n, err = store.Delete(ctx)
				require.NoError(t, err)
				assert.Zero(t, n)

				loaded, err := store.Get(ctx, "del")
				require.NoError(t, err)
				assert.Empty(t, loaded)
			})
		})
	}
}

func TestRedisStore_TTLAndCorruption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, mr := newRedisStore(t)

	t.Run("ttl applied", func(t *testing.T) {
		_, err := store.Set(ctx, "ttl", session.Data{"a": "b"}, true, 90*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, mr.TTL("test:ttl"))

		mr.FastForward(91 * time.Second)
		loaded, err := store.Get(ctx, "ttl")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("no ttl means no expiry", func(t *testing.T) {
		_, err := store.Set(ctx, "forever", session.Data{"a": "b"}, false, 0)
		require.NoError(t, err)
		assert.Zero(t, mr.TTL("test:forever"))
	})

	t.Run("corrupt value yields empty data", func(t *testing.T) {
		require.NoError(t, mr.Set("test:corrupt", "{not json"))
		loaded, err := store.Get(ctx, "corrupt")
		require.NoError(t, err)
		assert.Empty(t, loaded)

		require.NoError(t, mr.Set("test:null", "null"))
		loaded, err = store.Get(ctx, "null")
		require.NoError(t, err)
		assert.NotNil(t, loaded)
		assert.Empty(t, loaded)
	})

	t.Run("transport error is returned", func(t *testing.T) {
		brokenStore, brokenMr := newRedisStore(t)
		brokenMr.Close()
		_, err := brokenStore.Get(ctx, "x")
		assert.ErrorIs(t, err, session.ErrStoreFailure)
	})
}

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore(10 * time.Millisecond)
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Set(ctx, "short", session.Data{"a": "b"}, false, 20*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)

	loaded, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMemoryStore_Isolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	in := session.Data{"key": "value"}
	_, err := store.Set(ctx, "iso", in, false, 0)
	require.NoError(t, err)
	in["key"] = "modified"

	loaded, err := store.Get(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "value", loaded["key"])
}
