package cache

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds the store when no ceiling is configured.
const DefaultMaxEntries = 256

// entry stores one cached payload with its creation time and TTL.
type entry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

// Store is a keyed TTL cache shared by the aggregation layer. Expiry is
// checked lazily on read; when the entry ceiling is exceeded the
// oldest-inserted key is evicted (insertion order, not LRU). Re-setting
// an existing key refreshes its value and timestamp but keeps its
// insertion position.
type Store struct {
	mu      sync.Mutex
	max     int
	entries map[string]entry
	order   []string
	now     func() time.Time
}

func New(max int) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Store{
		max:     max,
		entries: make(map[string]entry, max),
		order:   make([]string, 0, max),
		now:     time.Now,
	}
}

// Get returns the payload and its age. A missing or expired key is a
// miss; an expired entry is removed when observed.
func (s *Store) Get(key string) (any, time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, 0, false
	}
	age := s.now().Sub(e.createdAt)
	if age >= e.ttl {
		delete(s.entries, key)
		s.dropFromOrder(key)
		return nil, 0, false
	}
	return e.value, age, true
}

// Set stores value under key with the given TTL, evicting the
// oldest-inserted entry if the ceiling would be exceeded.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		s.entries[key] = entry{value: value, createdAt: s.now(), ttl: ttl}
		return
	}
	s.entries[key] = entry{value: value, createdAt: s.now(), ttl: ttl}
	s.order = append(s.order, key)
	if len(s.entries) > s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

// Len reports the current entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity reports the configured entry ceiling.
func (s *Store) Capacity() int { return s.max }

func (s *Store) dropFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
