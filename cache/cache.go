// cache/cache.go
package cache

import (
	"sync"

	"github.com/google/uuid"
)

// Tag identifies a cached query result. A mutation never edits cached data;
// it invalidates tags and the next access refetches.
type Tag string

// TagGames covers the paged games list.
const TagGames Tag = "games"

// TagGame covers one game's detail.
func TagGame(id uuid.UUID) Tag {
	return Tag("game:" + id.String())
}

// InvalidateFunc is notified after a tag is invalidated, so owners of live
// views can refetch.
type InvalidateFunc func(tag Tag)

type entry struct {
	value interface{}
	valid bool
	// generation bumps on every invalidation; a fetch that started under
	// an older generation is stale and its result is dropped on arrival.
	generation uint64
}

// Store is the client's query cache. Latest successful fetch per tag wins;
// a response bound to a superseded generation is ignored rather than
// actively cancelled.
type Store struct {
	mutex       sync.RWMutex
	entries     map[Tag]*entry
	subscribers []InvalidateFunc
}

func NewStore() *Store {
	return &Store{
		entries: make(map[Tag]*entry),
	}
}

// Subscribe registers a refetch trigger. Must be called before the session
// starts delivering push events.
func (s *Store) Subscribe(fn InvalidateFunc) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Begin snapshots the tag's generation at fetch start.
func (s *Store) Begin(tag Tag) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.ensure(tag).generation
}

// Complete stores a fetched value unless the tag was invalidated since
// Begin. Reports whether the value was kept.
func (s *Store) Complete(tag Tag, generation uint64, value interface{}) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	e := s.ensure(tag)
	if e.generation != generation {
		return false
	}
	e.value = value
	e.valid = true
	return true
}

// Get returns the cached value for a tag while it is fresh.
func (s *Store) Get(tag Tag) (interface{}, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, exists := s.entries[tag]
	if !exists || !e.valid {
		return nil, false
	}
	return e.value, true
}

// Invalidate marks the tag stale, drops its value and notifies subscribers.
func (s *Store) Invalidate(tag Tag) {
	s.mutex.Lock()
	e := s.ensure(tag)
	e.valid = false
	e.value = nil
	e.generation++
	subscribers := make([]InvalidateFunc, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mutex.Unlock()

	for _, fn := range subscribers {
		fn(tag)
	}
}

func (s *Store) ensure(tag Tag) *entry {
	e, exists := s.entries[tag]
	if !exists {
		e = &entry{}
		s.entries[tag] = e
	}
	return e
}
