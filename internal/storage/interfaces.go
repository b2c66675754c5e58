// Package storage persists uploaded photo files. Backends abstract where
// the bytes live (local disk or S3) behind a small key-based interface so
// the HTTP layer can serve /uploads/* uniformly.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrFileNotFound indicates the requested file does not exist in the backend.
var ErrFileNotFound = errors.New("file not found")

// Categories partition uploads by what they depict.
const (
	CategoryVehicles = "vehicles"
	CategoryBuyers   = "buyers"
)

// Upload describes one incoming file.
type Upload struct {
	// OriginalName is the client-supplied filename, kept for display only.
	OriginalName string

	// ContentType is the declared MIME type.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Reader yields the file content.
	Reader io.Reader
}

// StoredFile describes a persisted upload.
type StoredFile struct {
	// Filename is the generated name within its category.
	Filename string

	// Key is the backend key ("<category>/<filename>"), stored in the
	// database and resolved back through Open.
	Key string
}

// Backend stores and retrieves photo files by key.
type Backend interface {
	// Save persists the upload under a generated name in the given
	// category and returns its descriptor.
	Save(ctx context.Context, category string, upload Upload) (*StoredFile, error)

	// Open returns the content of a stored file for serving.
	// Returns ErrFileNotFound if no such key exists.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored file. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
