package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Store keeps bucket state.
type Store interface {
	// Take removes n tokens when at least n are available. The returned
	// state reflects the bucket after the attempt.
	Take(ctx context.Context, key string, n int, cfg Config) (State, error)
	Reset(ctx context.Context, key string) error
}

// State is a bucket snapshot.
type State struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the next refill happens.
	ResetAt time.Time
}

// Result of a rate limit check.
type Result struct {
	State
	Limit int
}

// RetryAfter is zero for allowed results.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Bucket is a token bucket limiter.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket validates cfg and returns a limiter over store.
func NewBucket(store Store, cfg Config) (*Bucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: cfg}, nil
}

// Allow takes one token for key.
func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN takes n tokens for key. A denied attempt takes nothing.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}
	st, err := b.store.Take(ctx, key, n, b.config)
	if err != nil {
		return Result{}, err
	}
	return Result{State: st, Limit: b.config.Capacity}, nil
}

// Reset refills the bucket for key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}

// refill advances a bucket to now. last moves by whole intervals only so
// partial intervals are not lost.
func refill(tokens int, last, now time.Time, cfg Config) (int, time.Time) {
	if now.Before(last) {
		return tokens, last
	}
	intervals := int64(now.Sub(last) / cfg.RefillInterval)
	if intervals <= 0 {
		return tokens, last
	}
	full := int64(cfg.Capacity/cfg.RefillRate + 1)
	add := min(intervals, full) * int64(cfg.RefillRate)
	tokens = int(min(int64(tokens)+add, int64(cfg.Capacity)))
	return tokens, last.Add(time.Duration(intervals) * cfg.RefillInterval)
}
