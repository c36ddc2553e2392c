package rpc

import (
	"maps"
	"slices"
	"sync"
)

// Well-known metadata keys injected before authorization.
const (
	MetaSessionID = "sessionId"
	MetaUserAgent = "userAgent"
	MetaUserIP    = "userIp"
	MetaSession   = "session"
	MetaUserID    = "userId"
)

// Meta is per-call metadata. Keys are write-once so later stages cannot
// overwrite what earlier ones established.
type Meta struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMeta returns empty metadata.
func NewMeta() *Meta {
	return &Meta{values: make(map[string]any)}
}

// Add sets key once. A second Add of the same key returns ErrMetaExists.
func (m *Meta) Add(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[key]; exists {
		return ErrMetaExists
	}
	m.values[key] = value
	return nil
}

// Get returns the value under key.
func (m *Meta) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// String returns the value under key if it is a string.
func (m *Meta) String(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// Keys returns the set keys in sorted order.
func (m *Meta) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.values))
}
