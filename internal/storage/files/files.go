// Package files stores uploaded document bytes under a documents root, one
// directory per category. Overwriting an existing filename replaces its
// bytes; chunks indexed from the old content are not removed, so re-uploads
// can leave stale index entries behind.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CategoryPYQ is the directory for question-paper uploads.
const CategoryPYQ = "pyqs"

// Store writes and reads uploaded documents below a root directory.
type Store struct {
	root string
}

// NewStore creates a file store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create documents root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the documents root directory.
func (s *Store) Root() string { return s.root }

// Store durably writes data as category/filename and returns the stored
// path. The filename is reduced to its base to keep writes inside the root.
func (s *Store) Store(category, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.root, CategoryDir(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create category directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	return path, nil
}

// Read returns the bytes previously stored at path.
func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// CategoryDir normalizes a display category ("Academic Calendar") into a
// directory name ("academic_calendar").
func CategoryDir(category string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "_")
}
