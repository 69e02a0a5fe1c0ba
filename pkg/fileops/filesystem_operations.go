// Package fileops provides the file system the release pipeline reads and
// writes its manifest, changelog and version log through.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Read when the file does not exist.
var ErrNotFound = errors.New("file not found")

// FileSystem is the file capability consumed by the pipeline.
type FileSystem interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	EnsureDirectory(ctx context.Context, path string) error
}

// FileSystemOperations resolves relative paths against Root.
type FileSystemOperations struct {
	Root   string
	logger *zap.Logger
}

// NewFileSystemOperations creates a file system rooted at root.
func NewFileSystemOperations(root string, logger *zap.Logger) *FileSystemOperations {
	return &FileSystemOperations{
		Root:   root,
		logger: logger.Named("filesystem"),
	}
}

// Resolve returns the absolute location of path.
func (f *FileSystemOperations) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.Root, path)
}

// Read reads the entire contents of a file.
func (f *FileSystemOperations) Read(ctx context.Context, path string) ([]byte, error) {
	full := f.Resolve(path)
	f.logger.Debug("Reading file", zap.String("path", full))

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, full)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", full, err)
	}

	f.logger.Debug("File read successfully",
		zap.String("path", full),
		zap.Int("size", len(data)))
	return data, nil
}

// Write replaces a file's contents, keeping the mode of an existing file.
// The parent directory must already exist.
func (f *FileSystemOperations) Write(ctx context.Context, path string, data []byte) error {
	full := f.Resolve(path)
	perm := os.FileMode(0o644)
	if info, err := os.Stat(full); err == nil {
		perm = info.Mode().Perm()
	}

	f.logger.Debug("Writing file",
		zap.String("path", full),
		zap.Int("size", len(data)))

	if err := os.WriteFile(full, data, perm); err != nil {
		return fmt.Errorf("failed to write file %s: %w", full, err)
	}

	f.logger.Info("File written successfully",
		zap.String("path", full),
		zap.Int("size", len(data)))
	return nil
}

// EnsureDirectory creates path and its parents if missing.
func (f *FileSystemOperations) EnsureDirectory(ctx context.Context, path string) error {
	full := f.Resolve(path)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", full, err)
	}
	return nil
}

// Within reports whether a relative path stays inside the root once cleaned.
func Within(path string) bool {
	if path == "" || filepath.IsAbs(path) {
		return false
	}
	clean := filepath.Clean(path)
	return clean != ".." && !strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
