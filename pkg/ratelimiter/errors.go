package ratelimiter

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig     = errors.New("ratelimiter.invalid_config")
	ErrInvalidTokenCount = errors.New("ratelimiter.invalid_token_count")
	ErrStoreUnavailable  = errors.New("ratelimiter.store_unavailable")
)

// LimitError rejects a call made with an empty bucket.
type LimitError struct {
	Call       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	secs := int(e.RetryAfter.Round(time.Second) / time.Second)
	return fmt.Sprintf("[API Rate limit]: Too many calls of method '%s', retry in %ds", e.Call, max(secs, 1))
}
