package kv

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is a process-local Store backed by a map. It is the
// fallback when the remote backend is unreachable, and the default
// backend for tests and local development.
//
// Expired entries are dropped lazily: on read for the key touched, and
// via an opportunistic sweep on mutating calls so untouched keys do not
// accumulate forever. There is no background goroutine.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time

	// SweepEvery bounds how often mutating calls pay for a full sweep.
	// Zero uses a 30s default.
	SweepEvery time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	if e, ok := s.entries[key]; ok && e.live(now) {
		return false, nil
	}

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: expiry(now, ttl),
	}
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if !e.live(now) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	s.entries[key] = memoryEntry{
		value:     value,
		expiresAt: expiry(now, ttl),
	}
	return nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.expiresAt.IsZero() {
		return 0, false, nil
	}

	remaining := e.expiresAt.Sub(now)
	if remaining <= 0 {
		delete(s.entries, key)
		return 0, false, nil
	}
	return remaining, true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len reports the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// sweepLocked drops expired entries. Must be called with mu held.
func (s *MemoryStore) sweepLocked(now time.Time) {
	every := s.SweepEvery
	if every <= 0 {
		every = 30 * time.Second
	}
	if now.Sub(s.lastSweep) < every {
		return
	}
	s.lastSweep = now

	for k, e := range s.entries {
		if !e.live(now) {
			delete(s.entries, k)
		}
	}
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
