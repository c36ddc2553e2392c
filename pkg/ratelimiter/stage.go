package ratelimiter

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/rpc"
)

// OrderStage places the limiter after connection metadata is attached and
// before authorization.
const OrderStage = 100

// Limiter is satisfied by *Bucket.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// StageOption configures Stage.
type StageOption func(*stageOptions)

type stageOptions struct {
	logger *slog.Logger
	exempt map[string]struct{}
}

// WithStageLogger sets the logger for store failures.
func WithStageLogger(l *slog.Logger) StageOption {
	return func(o *stageOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Exempt skips the limiter for the named calls.
func Exempt(names ...string) StageOption {
	return func(o *stageOptions) {
		for _, n := range names {
			o.exempt[n] = struct{}{}
		}
	}
}

// Stage limits calls per session id, or per connection when the call has
// no session id.
func Stage(l Limiter, opts ...StageOption) rpc.Stage {
	o := stageOptions{logger: logger.Discard(), exempt: map[string]struct{}{}}
	for _, opt := range opts {
		opt(&o)
	}

	return rpc.Stage{
		Name:  "ratelimit",
		Order: OrderStage,
		Fn: func(ctx context.Context, call *rpc.Call) error {
			if _, ok := o.exempt[call.Name]; ok {
				return nil
			}

			key := call.Meta.String(rpc.MetaSessionID)
			if key == "" {
				key = "conn:" + call.Conn.ID
			}

			res, err := l.Allow(ctx, key)
			if err != nil {
				o.logger.WarnContext(ctx, "rate limit check failed, call let through",
					logger.CallName(call.Name),
					logger.Error(err),
				)
				return nil
			}
			if !res.Allowed {
				o.logger.InfoContext(ctx, "call rate limited",
					logger.CallName(call.Name),
					logger.ConnID(call.Conn.ID),
				)
				return &LimitError{Call: call.Name, RetryAfter: res.RetryAfter()}
			}
			return nil
		},
	}
}
