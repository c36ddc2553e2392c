package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/callgate/pkg/logger"
)

// RedisStore implements Store on a go-redis client. Values are JSON.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces every key.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithStoreLogger sets the logger used for decode failures.
func WithStoreLogger(l *slog.Logger) RedisStoreOption {
	return func(s *RedisStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewRedisStore wraps client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Get loads and decodes the value under key.
func (s *RedisStore) Get(ctx context.Context, key string) (Data, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Data{}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	data := Data{}
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		s.logger.DebugContext(ctx, "session data is not a JSON object",
			logger.SessionID(key),
			logger.Error(err),
		)
		return Data{}, nil
	}
	return data, nil
}

// Set writes value, merging over the existing entry when requested.
func (s *RedisStore) Set(ctx context.Context, key string, value Data, mergeExisting bool, ttl time.Duration) (Data, error) {
	stored := value.Clone()
	if mergeExisting {
		old, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		stored = merge(old, value)
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	if ttl <= 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return stored, nil
}

// Delete removes keys. Zero keys is a no-op.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}

	n, err := s.client.Del(ctx, prefixed...).Result()
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return n, nil
}
