package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// NewFilename generates a collision-free stored filename, keeping the
// original extension (lowercased) so content sniffing stays predictable.
func NewFilename(originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return uuid.NewString() + ext
}

// Key builds the backend key for a category and filename.
func Key(category, filename string) string {
	return category + "/" + filename
}

// WebPath maps a backend key to the URL path it is served under.
func WebPath(key string) string {
	return "/uploads/" + key
}

// KeyFromWebPath is the inverse of WebPath. It returns false when the
// path escapes the uploads tree or is otherwise malformed.
func KeyFromWebPath(p string) (string, bool) {
	key := strings.TrimPrefix(p, "/uploads/")
	if key == "" || key == p {
		return "", false
	}
	clean := path.Clean(key)
	if clean != key || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", false
	}
	return clean, true
}
