// Package gcs provides a snapshot store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	rstorage "github.com/JakeFAU/roster-crawler/internal/storage"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	// Prefix is prepended to every object name, e.g. "rosters/".
	Prefix string `mapstructure:"prefix"`
}

// Store writes snapshots to a configured GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ rstorage.SnapshotStore = (*Store)(nil)

// New creates a GCS-backed snapshot store.
func New(client *storage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Write uploads data as a JSON object, replacing any existing object.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	writer := s.client.Bucket(s.bucket).Object(s.prefix + name).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", name, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", name, err)
	}
	return nil
}

// Latest lists objects under the prefix and downloads the one with the
// newest update time.
func (s *Store) Latest(ctx context.Context, prefix, suffix string) (rstorage.Object, bool, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix + prefix})
	var newest *storage.ObjectAttrs
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return rstorage.Object{}, false, fmt.Errorf("list objects: %w", err)
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		if !rstorage.Matches(name, prefix, suffix) {
			continue
		}
		if newest == nil || attrs.Updated.After(newest.Updated) {
			newest = attrs
		}
	}
	if newest == nil {
		return rstorage.Object{}, false, nil
	}

	reader, err := s.client.Bucket(s.bucket).Object(newest.Name).NewReader(ctx)
	if err != nil {
		return rstorage.Object{}, false, fmt.Errorf("open object %s: %w", newest.Name, err)
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return rstorage.Object{}, false, fmt.Errorf("read object %s: %w", newest.Name, err)
	}
	return rstorage.Object{
		Name:    strings.TrimPrefix(newest.Name, s.prefix),
		Data:    data,
		ModTime: newest.Updated,
	}, true, nil
}
