package library

import (
	"context"
	"sync"

	"github.com/gridironlab/powerrank/internal/ratings"
)

// MemoryStore is an in-process Store for single-binary callers and
// tests. Entries are copied on the way in and out so no caller holds a
// reference into the store's state.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

// NewMemoryStore returns an empty in-memory library.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyEntry(e)
	return &out, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = copyEntry(entry)
	return nil
}

// Invalidate implements Store.
func (s *MemoryStore) Invalidate(_ context.Context, season, week int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.Season == season && k.Week == week {
			delete(s.entries, k)
		}
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func copyEntry(e Entry) Entry {
	out := e
	out.Ratings = append([]ratings.RatingResult(nil), e.Ratings...)
	return out
}
