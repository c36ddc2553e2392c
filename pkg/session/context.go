package session

import "context"

type handleContextKey struct{}

// WithHandle adds a session handle to the context.
func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, handleContextKey{}, h)
}

// FromContext retrieves the session handle from the context.
func FromContext(ctx context.Context) (*Handle, bool) {
	h, ok := ctx.Value(handleContextKey{}).(*Handle)
	return h, ok && h != nil
}

// MustFromContext retrieves the session handle or panics.
func MustFromContext(ctx context.Context) *Handle {
	h, ok := FromContext(ctx)
	if !ok {
		panic("session: not found in context")
	}
	return h
}

// IDFromContext returns the session id from the context handle.
func IDFromContext(ctx context.Context) (string, bool) {
	h, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return h.ID(), true
}
