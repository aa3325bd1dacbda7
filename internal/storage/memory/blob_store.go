// Package memory keeps snapshots in-memory for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/roster-crawler/internal/storage"
)

// Store holds snapshots in a map keyed by name.
type Store struct {
	mu      sync.RWMutex
	objects map[string]storage.Object
	now     func() time.Time
	writes  int
}

var _ storage.SnapshotStore = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		objects: make(map[string]storage.Object),
		now:     time.Now,
	}
}

// Write stores a copy of data under name with the current time.
func (s *Store) Write(_ context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = storage.Object{
		Name:    name,
		Data:    append([]byte(nil), data...),
		ModTime: s.now(),
	}
	s.writes++
	return nil
}

// Put seeds an object with an explicit modification time.
func (s *Store) Put(name string, data []byte, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = storage.Object{Name: name, Data: append([]byte(nil), data...), ModTime: modTime}
}

// Latest returns the newest matching object.
func (s *Store) Latest(_ context.Context, prefix, suffix string) (storage.Object, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  storage.Object
		found bool
	)
	for name, obj := range s.objects {
		if !storage.Matches(name, prefix, suffix) {
			continue
		}
		if !found || obj.ModTime.After(best.ModTime) {
			best = obj
			found = true
		}
	}
	if !found {
		return storage.Object{}, false, nil
	}
	best.Data = append([]byte(nil), best.Data...)
	return best, true, nil
}

// Get returns the named object.
func (s *Store) Get(name string) (storage.Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	return obj, ok
}

// Writes reports how many writes the store has accepted.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
