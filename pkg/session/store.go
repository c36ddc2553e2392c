package session

import (
	"context"
	"time"
)

// Store persists session data under a key with an optional expiry.
type Store interface {
	// Get returns the stored data. A missing or unreadable entry yields an
	// empty map and a nil error; only transport failures are returned.
	Get(ctx context.Context, key string) (Data, error)

	// Set writes value under key. With merge the value is shallow-merged over
	// the stored one, new keys winning. A positive ttl sets the expiry,
	// otherwise the entry does not expire. Returns what was stored.
	Set(ctx context.Context, key string, value Data, merge bool, ttl time.Duration) (Data, error)

	// Delete removes keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
}
