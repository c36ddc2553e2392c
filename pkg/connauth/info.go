package connauth

import (
	"context"

	"github.com/dmitrymomot/callgate/pkg/cookie"
)

// Info is what the request adapter learned about a request.
type Info struct {
	SessionID string
	// Fresh is true when the session id was minted for this request.
	Fresh     bool
	Domain    string
	UserAgent string
	UserIP    string
	Cookies   *cookie.Jar
}

type infoContextKey struct{}

// WithInfo stores the request info in ctx.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoContextKey{}, info)
}

// InfoFromContext returns the info stored by the HTTP middleware.
func InfoFromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoContextKey{}).(Info)
	return info, ok
}
