// Package storage defines where roster snapshots live. Backends (local
// filesystem, GCS, Postgres, memory) only need to store named byte blobs and
// find the most recently modified one for a name prefix.
package storage

import (
	"context"
	"strings"
	"time"
)

// Object is a stored snapshot.
type Object struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// SnapshotStore persists snapshot files.
type SnapshotStore interface {
	// Write creates or replaces the named object.
	Write(ctx context.Context, name string, data []byte) error
	// Latest returns the most recently modified object whose name has the
	// given prefix and suffix. ok is false when nothing matches.
	Latest(ctx context.Context, prefix, suffix string) (obj Object, ok bool, err error)
}

// Matches reports whether name carries both prefix and suffix.
func Matches(name, prefix, suffix string) bool {
	return strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix)
}

// Discard is a SnapshotStore that drops every write and never has a
// snapshot. It backs dry runs.
type Discard struct{}

// Write does nothing.
func (Discard) Write(_ context.Context, _ string, _ []byte) error {
	return nil
}

// Latest always reports no snapshot.
func (Discard) Latest(_ context.Context, _, _ string) (Object, bool, error) {
	return Object{}, false, nil
}
