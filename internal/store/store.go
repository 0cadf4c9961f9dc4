// Package store holds the in-memory entity collections the service reads from.
//
// A Store guards one collection with a reader-writer lock and notifies
// subscribers after every successful mutation. Events are always published
// after the lock is released, so handlers may read the store freely.
package store

import (
	"fmt"
	"sync"

	"tithe/internal/core"
)

// Store is a lock-guarded collection of entities identified by an int64 id.
type Store[E any] struct {
	mu     sync.RWMutex
	items  []E
	idOf   func(E) int64
	events broker[E]
}

// New creates an empty store. idOf extracts the identity of an entity.
func New[E any](idOf func(E) int64) *Store[E] {
	return &Store[E]{idOf: idOf}
}

// Subscribe registers h for every subsequent event.
func (s *Store[E]) Subscribe(h Handler[E]) *Subscription {
	return s.events.subscribe(h)
}

// Subscribers returns the number of active subscriptions.
func (s *Store[E]) Subscribers() int {
	return s.events.count()
}

// Load replaces the whole collection. Readers see either the old or the new set.
func (s *Store[E]) Load(items []E) {
	fresh := make([]E, len(items))
	copy(fresh, items)

	s.mu.Lock()
	s.items = fresh
	s.mu.Unlock()

	s.events.publish(Event[E]{Kind: EventLoaded})
}

// GetAll returns a copy of the collection.
func (s *Store[E]) GetAll() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// GetByID returns the entity with the given id, if present.
func (s *Store[E]) GetByID(id int64) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero E
	return zero, false
}

// Len returns the number of entities held.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Add appends item. An id already present is rejected with core.ErrAlreadyExists.
func (s *Store[E]) Add(item E) error {
	id := s.idOf(item)

	s.mu.Lock()
	if s.indexOf(id) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("add %d: %w", id, core.ErrAlreadyExists)
	}
	s.items = append(s.items, item)
	s.mu.Unlock()

	s.events.publish(Event[E]{Kind: EventAdded, Item: item})
	return nil
}

// Update replaces the entity sharing item's id. Unknown ids return core.ErrNotFound.
func (s *Store[E]) Update(item E) error {
	id := s.idOf(item)

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("update %d: %w", id, core.ErrNotFound)
	}
	s.items[i] = item
	s.mu.Unlock()

	s.events.publish(Event[E]{Kind: EventUpdated, Item: item})
	return nil
}

// Delete removes the entity with the given id and returns it.
// Unknown ids return core.ErrNotFound.
func (s *Store[E]) Delete(id int64) (E, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		var zero E
		return zero, fmt.Errorf("delete %d: %w", id, core.ErrNotFound)
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.events.publish(Event[E]{Kind: EventDeleted, Item: removed})
	return removed, nil
}

// indexOf must be called with s.mu held.
func (s *Store[E]) indexOf(id int64) int {
	for i, it := range s.items {
		if s.idOf(it) == id {
			return i
		}
	}
	return -1
}
