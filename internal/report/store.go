// Package report persists report artifacts so they can be attached to outbound messages.
package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/davidbz/linguist/internal/observability"
)

const fileMode = 0o600

// FileStore writes one file per report into a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("report directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// FileName returns the delivery name of a report.
func FileName(id string) string {
	return fmt.Sprintf("report_%s.txt", id)
}

// Save writes content and returns the artifact path.
func (s *FileStore) Save(ctx context.Context, id, content string) (string, error) {
	if id == "" {
		return "", errors.New("report id cannot be empty")
	}

	path := filepath.Join(s.dir, FileName(id))
	if err := os.WriteFile(path, []byte(content), fileMode); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	observability.FromContext(ctx).Debug("report saved",
		observability.String("path", path),
		observability.Int("bytes", len(content)))

	return path, nil
}

// Remove deletes an artifact. A missing file is not an error.
func (s *FileStore) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove report: %w", err)
	}
	return nil
}
