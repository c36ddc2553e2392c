package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type memBucket struct {
	tokens     int
	lastRefill time.Time
	expiresAt  time.Time
}

// MemoryStore keeps buckets in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memBucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore sweeps idle buckets every cleanupInterval; zero disables
// the sweep.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*memBucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.sweep(cleanupInterval)
	}
	return s
}

// Take refills the bucket and takes n tokens if enough are left.
func (s *MemoryStore) Take(_ context.Context, key string, n int, cfg Config) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok || now.After(b.expiresAt) {
		b = &memBucket{tokens: cfg.Capacity, lastRefill: now}
		s.buckets[key] = b
	}

	b.tokens, b.lastRefill = refill(b.tokens, b.lastRefill, now, cfg)

	allowed := b.tokens >= n
	if allowed {
		b.tokens -= n
	}
	b.expiresAt = now.Add(cfg.idleTTL())

	return State{
		Allowed:   allowed,
		Remaining: b.tokens,
		ResetAt:   b.lastRefill.Add(cfg.RefillInterval),
	}, nil
}

// Reset drops the bucket for key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.buckets, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of tracked buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeIdle()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) removeIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, b := range s.buckets {
		if now.After(b.expiresAt) {
			delete(s.buckets, key)
		}
	}
}

// Close stops the sweep. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
