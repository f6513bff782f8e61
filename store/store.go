// Package store holds the most recently synchronized live variable values.
//
// A Store is shared, process-wide state: a sync collaborator writes to it
// from its own goroutine while resolvers read from it on the caller's
// goroutine. Every method is safe for concurrent use.
package store

import "sync"

// Getter is the read side of a Store. Resolvers depend on it.
type Getter interface {
	Get(id string) (value string, ok bool)
}

// Setter is the write side used by sync collaborators that update one value
// at a time.
type Setter interface {
	Set(id, value string)
}

// Replacer is the write side used by sync collaborators that refresh the
// whole value set at once.
type Replacer interface {
	Replace(values map[string]string)
}

// Store maps live variable identifiers to their current string values.
// Absence of an identifier is a normal outcome, not an error.
type Store struct {
	mu       sync.RWMutex
	values   map[string]string
	revision uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: map[string]string{}}
}

// Get returns the stored value for id, and whether it was present.
func (s *Store) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[id]
	return v, ok
}

// Set stores value under id, overwriting any prior value.
func (s *Store) Set(id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = value
	s.revision++
}

// Replace swaps the entire value set for a copy of values. Readers observe
// either the old set or the new one, never a mix.
func (s *Store) Replace(values map[string]string) {
	next := make(map[string]string, len(values))
	for k, v := range values {
		next[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = next
	s.revision++
}

// Delete removes id. Deleting an absent id still counts as a revision.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, id)
	s.revision++
}

// Snapshot returns a copy of all stored values.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of stored values.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Revision returns a counter that increases with every mutation.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Reset clears all values.
func (s *Store) Reset() {
	s.Replace(nil)
}
