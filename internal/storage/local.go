package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// LocalBackend stores files on the local filesystem under a root directory.
type LocalBackend struct {
	root   string
	logger zerolog.Logger
}

// NewLocalBackend creates a local backend rooted at dir, creating the
// category subdirectories if needed.
func NewLocalBackend(dir string, logger zerolog.Logger) (*LocalBackend, error) {
	for _, category := range []string{CategoryVehicles, CategoryBuyers} {
		if err := os.MkdirAll(filepath.Join(dir, category), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create uploads directory: %w", err)
		}
	}

	return &LocalBackend{
		root:   dir,
		logger: logger.With().Str("component", "storage").Str("backend", "local").Logger(),
	}, nil
}

// Save writes the upload to disk under a generated name.
func (b *LocalBackend) Save(ctx context.Context, category string, upload Upload) (*StoredFile, error) {
	filename := NewFilename(upload.OriginalName)
	key := Key(category, filename)
	target := filepath.Join(b.root, filepath.FromSlash(key))

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, upload.Reader); err != nil {
		f.Close()
		os.Remove(target)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(target)
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	b.logger.Debug().Str("key", key).Int64("size", upload.Size).Msg("file stored")

	return &StoredFile{Filename: filename, Key: key}, nil
}

// Open returns the stored file content.
func (b *LocalBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(b.root, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Delete removes the stored file. A missing file is not an error.
func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(b.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
