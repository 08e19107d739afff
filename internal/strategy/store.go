package strategy

import (
	"context"
	"sync"
)

// Store answers "which backend last worked for this URL?" and records new
// answers. Implementations must keep the entry set sorted longest-prefix-first
// and hold at most one entry per prefix.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
	Upsert(ctx context.Context, e Entry) error
	StrategyForURL(ctx context.Context, rawURL string) (Strategy, bool, error)
}

// MemoryStore keeps entries in memory for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the current entry set.
func (s *MemoryStore) Load(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Save replaces the full entry set.
func (s *MemoryStore) Save(_ context.Context, entries []Entry) error {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	sortEntries(cp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = cp
	return nil
}

// Upsert replaces or appends the entry for its prefix.
func (s *MemoryStore) Upsert(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = upsert(s.entries, e)
	return nil
}

// StrategyForURL returns the longest-prefix match for the URL.
func (s *MemoryStore) StrategyForURL(_ context.Context, rawURL string) (Strategy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := StrategyForURL(s.entries, rawURL)
	return st, ok, nil
}

// Reset drops all entries. Intended for test isolation.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
