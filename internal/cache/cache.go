// Package cache is the persistent fingerprint store that makes provider calls
// idempotent: at most one outbound request per unique fingerprint for the
// lifetime of the cache. It is the sole source of truth for already-done work,
// so an interrupted run resumes by simply re-running.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Store is the injected key-value abstraction. Entries are append-only:
// a committed fingerprint is never rewritten, a changed input produces a new
// fingerprint instead.
type Store interface {
	// Get returns the entry bytes and whether the fingerprint exists.
	Get(key string) ([]byte, bool, error)
	// Put commits an entry. Writing an already-committed fingerprint is a
	// no-op: the first committed value wins (idempotent writers).
	Put(key string, value []byte) error
}

// CorruptionError is fatal to the run: an entry exists but cannot be read as
// JSON. No automatic rebuild is attempted; the operator decides.
type CorruptionError struct {
	Key  string
	Path string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("cache entry %s corrupted (%s): operator intervention required", e.Key, e.Path)
}

// FileStore keeps one JSON file per fingerprint under a directory, surviving
// across runs. Layout matches the profiling cache this replaces: <key>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, false, &CorruptionError{Key: key, Path: path}
	}
	return data, true, nil
}

// Put writes through a temp file plus rename so a crash mid-write never
// leaves a half-written entry under the final name. If the fingerprint is
// already committed the existing entry wins.
func (s *FileStore) Put(key string, value []byte) error {
	path := s.path(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	tmp := filepath.Join(s.dir, key+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create cache temp: %w", err)
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close cache entry: %w", err)
	}
	// concurrent writers of the same fingerprint rename identical content,
	// so last-rename-wins stays idempotent
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// MemStore is the in-memory Store used by mock mode and tests.
type MemStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{entries: map[string][]byte{}}
}

func (s *MemStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if len(data) == 0 || !json.Valid(data) {
		return nil, false, &CorruptionError{Key: key}
	}
	return data, true, nil
}

func (s *MemStore) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = cp
	return nil
}

// Len reports committed entries; handy for coverage checks.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
