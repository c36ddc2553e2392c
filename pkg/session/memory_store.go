package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store in process memory.
// Useful for tests and single-node development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a store; a positive cleanupInterval starts a
// janitor goroutine that drops expired entries. Call Close to stop it.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	store := &MemoryStore{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		store.ticker = time.NewTicker(cleanupInterval)
		go store.cleanupLoop()
	}

	return store
}

// Get returns a copy of the stored data.
func (m *MemoryStore) Get(ctx context.Context, key string) (Data, error) {
	m.mu.RLock()
	entry, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return Data{}, nil
	}

	if now := time.Now(); entry.expired(now) {
		m.evict(key, now)
		return Data{}, nil
	}

	return entry.data.Clone(), nil
}

// evict drops key only if it is still expired; a Set may have replaced it
// after the read lock was released.
func (m *MemoryStore) evict(key string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[key]; ok && entry.expired(now) {
		delete(m.entries, key)
	}
}

// Set stores a copy of value.
func (m *MemoryStore) Set(ctx context.Context, key string, value Data, mergeExisting bool, ttl time.Duration) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	stored := value.Clone()
	if mergeExisting {
		if old, ok := m.entries[key]; ok && !old.expired(now) {
			stored = merge(old.data, value)
		}
	}

	entry := memoryEntry{data: stored}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = entry

	return stored.Clone(), nil
}

// Delete removes keys.
func (m *MemoryStore) Delete(ctx context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	now := time.Now()
	for _, key := range keys {
		if entry, ok := m.entries[key]; ok {
			if !entry.expired(now) {
				n++
			}
			delete(m.entries, key)
		}
	}
	return n, nil
}

// DeleteExpired removes all expired entries.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, entry := range m.entries {
		if entry.expired(now) {
			delete(m.entries, key)
		}
	}

	return nil
}

// Len returns the number of entries, expired ones included until swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the cleanup goroutine.
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
