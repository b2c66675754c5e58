package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jivhala-motors/backoffice/internal/config"
)

// NewBackend builds the backend named by the uploads configuration.
func NewBackend(ctx context.Context, cfg config.UploadsConfig, logger zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalBackend(cfg.Dir, logger)
	case "s3":
		return NewS3Backend(ctx, cfg.S3, logger)
	}
	return nil, fmt.Errorf("unsupported uploads backend %q", cfg.Backend)
}
