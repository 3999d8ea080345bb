// Package docstore provides whole-document JSON persistence with atomic
// replace semantics: documents are written to a temporary file next to the
// target and renamed over it, so readers never observe a partial write.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotExist is returned by Load when the document has never been saved.
var ErrNotExist = errors.New("document does not exist")

// Store manages one JSON document on disk. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store for the document at path. The file is created lazily
// on the first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load unmarshals the document into v. Returns ErrNotExist if the file is
// missing; callers are expected to fall back to their zero document.
func (s *Store) Load(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExist
		}
		return fmt.Errorf("read document %s: %w", s.path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", s.path, err)
	}
	return nil
}

// Save marshals v and atomically replaces the document.
func (s *Store) Save(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %s: %w", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create document dir for %s: %w", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write temp document %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace document %s: %w", s.path, err)
	}
	return nil
}
