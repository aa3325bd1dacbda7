// Package local implements a filesystem snapshot store.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/roster-crawler/internal/storage"
)

// Config captures the parameters for the local filesystem store.
type Config struct {
	// BaseDir is the directory snapshots are written to and read from.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Store writes snapshots as flat files under a base directory.
type Store struct {
	baseDir string
}

var _ storage.SnapshotStore = (*Store)(nil)

// New creates a filesystem-backed store, creating the base directory when it
// does not exist and verifying it is writable.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &Store{baseDir: cfg.BaseDir}, nil
}

// Write replaces the named file. The write goes through a temp file and a
// rename so readers never see a partial snapshot.
func (s *Store) Write(_ context.Context, name string, data []byte) error {
	fullPath, err := s.resolve(name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.baseDir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Latest scans the base directory for the most recently modified matching
// file.
func (s *Store) Latest(_ context.Context, prefix, suffix string) (storage.Object, bool, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return storage.Object{}, false, fmt.Errorf("read base directory: %w", err)
	}
	var (
		best  os.FileInfo
		found bool
	)
	for _, entry := range entries {
		if entry.IsDir() || !storage.Matches(entry.Name(), prefix, suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(best.ModTime()) {
			best = info
			found = true
		}
	}
	if !found {
		return storage.Object{}, false, nil
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, best.Name()))
	if err != nil {
		return storage.Object{}, false, fmt.Errorf("read %s: %w", best.Name(), err)
	}
	return storage.Object{Name: best.Name(), Data: data, ModTime: best.ModTime()}, true, nil
}

func (s *Store) resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}
	// Snapshots live flat in the base directory.
	if filepath.Base(name) != name || name == ".." || name == "." {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.baseDir, name), nil
}
