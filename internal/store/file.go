// Package store persists the snapshot artifact between scheduled runs.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/netresearch/org-watch/internal/domain"
)

// Store loads and saves the snapshot that runs diff against.
type Store interface {
	// Load returns the prior snapshot, or nil if none has been persisted
	// yet. A nil snapshot marks the bootstrap run.
	Load() (domain.Snapshot, error)
	// Save replaces the persisted snapshot wholesale.
	Save(snapshot domain.Snapshot) error
}

// document is the on-disk shape of the state file. LastRun is kept for
// operator visibility; the absence of the file itself is the bootstrap
// signal.
type document struct {
	Repos   domain.Snapshot `json:"repos"`
	LastRun *time.Time      `json:"last_run"`
}

// FileStore is a Store backed by a single JSON file.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Load() (domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	if doc.Repos == nil {
		doc.Repos = domain.Snapshot{}
	}
	return doc.Repos, nil
}

func (s *FileStore) Save(snapshot domain.Snapshot) error {
	now := s.now().UTC()
	doc := document{Repos: snapshot, LastRun: &now}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory %s: %w", dir, err)
		}
	}
	// Write-then-rename so a crash mid-write never leaves a torn snapshot.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file %s: %w", s.path, err)
	}
	return nil
}
