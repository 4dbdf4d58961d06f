// Package infra provides shared infrastructure: an expiring in-memory store,
// the outbound HTTP helper, and logger construction.
package infra

import (
	"sync"
	"time"
)

// --- Expiring in-memory store ---

type storeEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a thread-safe in-memory map whose entries expire after a period of
// inactivity. Lookups refresh the expiry.
type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]storeEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store with the given idle TTL.
func NewStore[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		entries: make(map[string]storeEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetOrCreate returns the live value for key, creating it with create when absent.
// The second result is true when a new value was created.
func (s *Store[V]) GetOrCreate(key string, create func() V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if entry, ok := s.entries[key]; ok && !now.After(entry.expiresAt) {
		entry.expiresAt = now.Add(s.ttl)
		s.entries[key] = entry
		return entry.value, false
	}
	v := create()
	s.entries[key] = storeEntry[V]{value: v, expiresAt: now.Add(s.ttl)}
	return v, true
}

// Len returns the number of entries, expired ones included until swept.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, v := range s.entries {
		if now.After(v.expiresAt) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}
