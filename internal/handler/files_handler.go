package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/storage"
)

// FilesHandler serves stored photos under /uploads/ from whichever backend
// holds them, so the URL shape is the same for local disk and S3.
type FilesHandler struct {
	files  storage.Backend
	logger zerolog.Logger
}

// NewFilesHandler creates a new stored-file handler.
func NewFilesHandler(files storage.Backend, logger zerolog.Logger) *FilesHandler {
	return &FilesHandler{
		files:  files,
		logger: logger.With().Str("handler", "files").Logger(),
	}
}

// ServeHTTP serves a single stored file by its web path.
func (h *FilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := storage.KeyFromWebPath(r.URL.Path)
	if !ok {
		writeMessage(w, http.StatusNotFound, "File not found")
		return
	}

	f, err := h.files.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			writeMessage(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to open stored file")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer f.Close()

	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Debug().Err(err).Str("key", key).Msg("Stored file copy interrupted")
	}
}
