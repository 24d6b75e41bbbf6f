package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *RedisStore {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, DefaultConfig())
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  setupTestRedis(t),
	}
}

func TestStore_PutGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Put(ctx, "node:a", []byte(`{"x":1}`)))
			got, err := s.Get(ctx, "node:a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"x":1}`, string(got))

			require.NoError(t, s.Put(ctx, "node:a", []byte(`{"x":2}`)))
			got, err = s.Get(ctx, "node:a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"x":2}`, string(got))
		})
	}
}

func TestStore_Miss(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(context.Background(), "missing")
			require.Error(t, err)
			assert.True(t, IsMiss(err))
		})
	}
}

func TestStore_DeleteAndKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, k := range []string{"node:b", "node:a", "asset:x"} {
				require.NoError(t, s.Put(ctx, k, []byte("{}")))
			}

			keys, err := s.Keys(ctx, "node:")
			require.NoError(t, err)
			assert.Equal(t, []string{"node:a", "node:b"}, keys)

			require.NoError(t, s.Delete(ctx, "node:a"))
			keys, err = s.Keys(ctx, "node:")
			require.NoError(t, err)
			assert.Equal(t, []string{"node:b"}, keys)
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", buf))
	buf[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "k", nil), context.Canceled)
}

func TestNewRedisStoreWithConfig_ConnectionError(t *testing.T) {
	_, err := NewRedisStoreWithConfig(RedisConfig{Addr: "localhost:99999", Config: DefaultConfig()})
	assert.Error(t, err)
}
