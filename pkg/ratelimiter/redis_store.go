package ratelimiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript refills and takes atomically. State lives in a hash with the
// token count and the last refill time in milliseconds.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local n = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
	tokens = capacity
	last = now
end

if now > last then
	local intervals = math.floor((now - last) / interval)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * rate)
		last = last + intervals * interval
	end
end

local allowed = 0
if tokens >= n then
	tokens = tokens - n
	allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last', last)
redis.call('PEXPIRE', KEYS[1], ARGV[6])
return {allowed, tokens, last + interval}
`)

// RedisStore shares buckets between gateway instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix namespaces bucket keys. Defaults to "ratelimit:".
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a store shared by every instance using client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: "ratelimit:", now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take runs the bucket script atomically on the server.
func (s *RedisStore) Take(ctx context.Context, key string, n int, cfg Config) (State, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		s.now().UnixMilli(),
		n,
		cfg.idleTTL().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return State{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return State{}, ErrStoreUnavailable
	}

	return State{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]),
	}, nil
}

// Reset deletes the bucket key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
