package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

var testConfig = Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second}

// stores returns every Store implementation driven by the same clock.
func stores(t *testing.T, c *clock) map[string]Store {
	t.Helper()

	mem := NewMemoryStore(0)
	mem.now = c.now
	t.Cleanup(mem.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rs := NewRedisStore(client)
	rs.now = c.now

	return map[string]Store{"memory": mem, "redis": rs}
}

func TestBucket_Stores(t *testing.T) {
	t.Parallel()

	c := newClock()
	for name, store := range stores(t, c) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b, err := NewBucket(store, testConfig)
			require.NoError(t, err)

			for i := range 3 {
				res, err := b.Allow(ctx, name)
				require.NoError(t, err)
				assert.True(t, res.Allowed, "call %d", i)
				assert.Equal(t, 2-i, res.Remaining)
				assert.Equal(t, 3, res.Limit)
			}

			res, err := b.Allow(ctx, name)
			require.NoError(t, err)
			assert.False(t, res.Allowed)
			assert.Equal(t, 0, res.Remaining, "a denied call takes nothing")
			assert.True(t, c.now().Add(time.Second).Equal(res.ResetAt), "reset at %v", res.ResetAt)

			c.advance(1500 * time.Millisecond)
			res, err = b.Allow(ctx, name)
			require.NoError(t, err)
			assert.True(t, res.Allowed)
			assert.Equal(t, 0, res.Remaining)

			c.advance(time.Hour)
			res, err = b.AllowN(ctx, name, 3)
			require.NoError(t, err)
			assert.True(t, res.Allowed, "refill is capped at capacity")
			assert.Equal(t, 0, res.Remaining)

			require.NoError(t, b.Reset(ctx, name))
			res, err = b.Allow(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, 2, res.Remaining)

			res, err = b.Allow(ctx, name+"-other")
			require.NoError(t, err)
			assert.Equal(t, 2, res.Remaining, "keys are independent")
		})
	}
}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()

	bad := []Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1, RefillInterval: time.Microsecond},
	}
	for _, cfg := range bad {
		_, err := NewBucket(NewMemoryStore(0), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestBucket_AllowNRejectsNonPositive(t *testing.T) {
	t.Parallel()
	b, err := NewBucket(NewMemoryStore(0), testConfig)
	require.NoError(t, err)

	_, err = b.AllowN(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTokenCount)
}

func TestMemoryStore_RemovesIdleBuckets(t *testing.T) {
	t.Parallel()
	c := newClock()
	s := NewMemoryStore(0)
	s.now = c.now

	_, err := s.Take(context.Background(), "k", 1, testConfig)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	c.advance(testConfig.idleTTL() + time.Second)
	s.removeIdle()
	assert.Zero(t, s.Len())
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisStore(client).Take(context.Background(), "k", 1, testConfig)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestLimitError(t *testing.T) {
	t.Parallel()
	err := &LimitError{Call: "ping get", RetryAfter: 300 * time.Millisecond}
	assert.Equal(t, "[API Rate limit]: Too many calls of method 'ping get', retry in 1s", err.Error())

	err.RetryAfter = 2400 * time.Millisecond
	assert.Contains(t, err.Error(), "retry in 2s")
}
