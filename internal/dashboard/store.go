// Package dashboard owns the per-view snapshot state the API serves to
// the browser. Each view holds a private copy of its latest fetch
// result; snapshots are replaced wholesale, never mutated in place.
//
// Every param-driven fetch is stamped with the view's generation at
// issue time, and its result is applied only if that generation is
// still current. This is the uniform staleness discipline: a response
// belonging to an out-of-date selection is discarded silently.
package dashboard

import (
	"sync"
	"time"
)

// Store holds one view's snapshot behind a generation counter.
type Store[T any] struct {
	mu        sync.Mutex
	gen       uint64
	value     T
	loaded    bool
	updatedAt time.Time
}

// Begin invalidates all in-flight fetches and returns the generation
// tag for a new one.
func (s *Store[T]) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Commit installs a fetched snapshot if gen is still current. It
// reports whether the snapshot was applied; stale results are dropped.
func (s *Store[T]) Commit(gen uint64, value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.value = value
	s.loaded = true
	s.updatedAt = time.Now()
	return true
}

// Get returns the current snapshot and whether one has been loaded.
func (s *Store[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.loaded
}

// UpdatedAt returns when the current snapshot was committed.
func (s *Store[T]) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
