package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON document per key under a base directory.
// Writes go through a temp file followed by rename, so concurrent
// readers on the same filesystem never observe a partially written
// table.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.dir, fmt.Sprintf("ratings_%d_w%02d_%s.json", key.Season, key.Week, key.ConfigHash))
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key Key) (*Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read library entry: %w", err)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode library entry: %w", err)
	}
	return &entry, nil
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, entry Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library entry: %w", err)
	}
	path := s.path(entry.Key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write library entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish library entry: %w", err)
	}
	return nil
}

// Invalidate implements Store. Every config-hash variant of the
// (season, week) is removed.
func (s *FileStore) Invalidate(_ context.Context, season, week int) error {
	pattern := filepath.Join(s.dir, fmt.Sprintf("ratings_%d_w%02d_*.json", season, week))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to glob library entries: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove library entry %s: %w", m, err)
		}
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
