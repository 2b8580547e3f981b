package triage

import (
	"sync"
	"sync/atomic"
)

// Store holds the process-wide settings snapshot. Readers get a complete
// snapshot; writers replace it wholesale and bump the version.
type Store struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[Settings]
}

// NewStore creates a store seeded with the default settings at version 1
func NewStore() *Store {
	s := &Store{}
	d := DefaultSettings()
	d.Version = 1
	s.current.Store(&d)
	return s
}

// NewStoreWith creates a store seeded with initial settings. Invalid settings
// are rejected and the store falls back to the defaults.
func NewStoreWith(initial Settings) (*Store, error) {
	s := NewStore()
	if _, err := s.Update(initial); err != nil {
		return s, err
	}
	return s, nil
}

// Get returns a deep copy of the current snapshot
func (s *Store) Get() Settings {
	return s.current.Load().Clone()
}

// Version returns the current snapshot version
func (s *Store) Version() uint64 {
	return s.current.Load().Version
}

// Update validates and replaces the whole settings snapshot. On error the
// previous snapshot stays in place.
func (s *Store) Update(next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return s.Get(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := next.Clone()
	snap.Version = s.current.Load().Version + 1
	s.current.Store(&snap)
	return snap.Clone(), nil
}

// Reset restores the defaults under a new version
func (s *Store) Reset() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := DefaultSettings()
	d.Version = s.current.Load().Version + 1
	s.current.Store(&d)
	return d.Clone()
}
