package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/studio"
)

const (
	stateFile  = "studio.json"
	layoutsDir = "layouts"
)

// FileStore keeps studio state and applied layouts as JSON files.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// DefaultDir returns ~/.config/orchard.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "orchard"), nil
}

// NewFileStore creates a file store rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/orchard/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(filepath.Join(baseDir, layoutsDir), 0700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

func (s *FileStore) layoutPath(reviewID string) string {
	return filepath.Join(s.baseDir, layoutsDir, reviewID+".json")
}

// Load reads the studio state.
func (s *FileStore) Load(ctx context.Context) (*studio.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st studio.State
	found, err := readJSON(filepath.Join(s.baseDir, stateFile), &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

// Save writes the studio state.
func (s *FileStore) Save(ctx context.Context, st studio.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.baseDir, stateFile), st)
}

// GetLayout reads the composition applied to reviewID.
func (s *FileStore) GetLayout(ctx context.Context, reviewID string) (*Applied, error) {
	if err := errs.ValidateRecordID(reviewID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a Applied
	found, err := readJSON(s.layoutPath(reviewID), &a)
	if err != nil || !found {
		return nil, err
	}
	return &a, nil
}

// PutLayout writes the composition applied to reviewID.
func (s *FileStore) PutLayout(ctx context.Context, reviewID string, p studio.Payload) error {
	if err := errs.ValidateRecordID(reviewID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.layoutPath(reviewID), Applied{ReviewID: reviewID, Payload: p, UpdatedAt: s.now().UTC()})
}

// DeleteLayout removes the composition applied to reviewID.
func (s *FileStore) DeleteLayout(ctx context.Context, reviewID string) error {
	if err := errs.ValidateRecordID(reviewID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.layoutPath(reviewID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove layout file: %w", err)
	}
	return nil
}

// ListLayouts returns the review ids with a saved composition, sorted.
func (s *FileStore) ListLayouts(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.baseDir, layoutsDir))
	if err != nil {
		return nil, fmt.Errorf("read layout dir: %w", err)
	}
	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Backend = (*FileStore)(nil)

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
