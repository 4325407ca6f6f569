package requestlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries is used when a non-positive capacity is requested.
const DefaultMaxEntries = 1000

// InMemoryStore is a Store backed by a FIFO buffer of fixed capacity.
type InMemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int
}

// NewInMemoryStore creates a store that keeps at most maxEntries entries.
func NewInMemoryStore(maxEntries int) *InMemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &InMemoryStore{
		entries:    make([]*Entry, 0, min(maxEntries, 64)),
		maxEntries: maxEntries,
	}
}

// Log records entry, assigning an ID and timestamp when they are unset.
// The oldest entry is evicted once the store is full.
func (s *InMemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, entry)
}

// Get retrieves an entry by ID.
func (s *InMemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List returns matching entries, newest first, after applying the filter's
// offset and limit.
func (s *InMemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		if filter.Match(s.entries[i]) {
			result = append(result, s.entries[i])
		}
	}
	s.mu.RUnlock()

	if filter == nil {
		return result
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*Entry{}
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result
}

// Clear removes all entries.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	s.entries = s.entries[:0]
	s.mu.Unlock()
}

// Count returns the number of entries held.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*InMemoryStore)(nil)
