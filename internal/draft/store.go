package draft

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/muurk/couponwiz/internal/coupon"
)

// formatVersion is written into every draft file. Drafts carry no schema
// migration: an unreadable draft is reported and can be cleared.
const formatVersion = 1

// Draft is a partially authored coupon kept for recovery.
type Draft struct {
	Version int            `yaml:"version"`
	SavedAt time.Time      `yaml:"saved_at"`
	Coupon  *coupon.Coupon `yaml:"coupon"`
}

// FileStore keeps a single draft in a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the draft file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the coupon as the current draft, replacing any previous one.
// Performs an atomic write so a crash never leaves a truncated draft.
func (s *FileStore) Save(ctx context.Context, c *coupon.Coupon) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("draft coupon is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}

	data, err := yaml.Marshal(&Draft{
		Version: formatVersion,
		SavedAt: s.now().UTC(),
		Coupon:  c,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	header := []byte("# couponwiz draft\n# Unpublished coupon recovered by `couponwiz resume`.\n# Deleted automatically on save, publish or discard.\n\n")
	data = append(header, data...)

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary draft file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save draft file: %w", err)
	}

	return nil
}

// Load returns the stored draft, or nil if there is none.
func (s *FileStore) Load(ctx context.Context) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft file: %w", err)
	}

	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft file: %w", err)
	}
	if d.Version != formatVersion {
		return nil, fmt.Errorf("unsupported draft version: %d (expected %d)", d.Version, formatVersion)
	}
	if d.Coupon == nil {
		d.Coupon = &coupon.Coupon{}
	}

	return &d, nil
}

// Clear deletes the draft. Clearing a missing draft is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove draft file: %w", err)
	}
	return nil
}

// MemoryStore keeps the draft in memory. Used by tests and the in-memory
// storage backend.
type MemoryStore struct {
	mu    sync.Mutex
	draft *Draft
	saves int
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory draft store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Save replaces the draft with a copy of c.
func (s *MemoryStore) Save(ctx context.Context, c *coupon.Coupon) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("draft coupon is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = &Draft{Version: formatVersion, SavedAt: s.now().UTC(), Coupon: c.Clone()}
	s.saves++
	return nil
}

// Load returns a copy of the draft, or nil if there is none.
func (s *MemoryStore) Load(ctx context.Context) (*Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft == nil {
		return nil, nil
	}
	return &Draft{Version: s.draft.Version, SavedAt: s.draft.SavedAt, Coupon: s.draft.Coupon.Clone()}, nil
}

// Clear deletes the draft.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = nil
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
