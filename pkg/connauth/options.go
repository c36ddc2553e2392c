package connauth

import (
	"log/slog"

	"github.com/dmitrymomot/callgate/pkg/cookie"
)

type options struct {
	logger        *slog.Logger
	cookieOptions []cookie.Option
}

// Option configures the adapters.
type Option func(*options)

// WithLogger sets the logger for store failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCookieOptions adds attributes to the session cookie written by the
// request adapter. Max-Age and Domain are always set from the session config.
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(o *options) {
		o.cookieOptions = append(o.cookieOptions, opts...)
	}
}
