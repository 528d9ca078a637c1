// Package storage archives run artifacts (input documents, schedules,
// statistics) to pluggable backends: local filesystem or S3-compatible
// object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/meridian-obs/skysched/internal/config"
)

var (
	ErrNotFound      = errors.New("object not found")
	ErrInvalidConfig = errors.New("invalid backend configuration")
)

// Backend is a flat key/value object store.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// NewBackend constructs a backend from its configuration.
func NewBackend(ctx context.Context, cfg config.BackendConfig) (Backend, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.Filesystem == nil || cfg.Filesystem.Path == "" {
			return nil, fmt.Errorf("%w: filesystem.path is required", ErrInvalidConfig)
		}
		return NewFilesystemBackend(cfg.Filesystem.Path), nil
	case "s3":
		if cfg.S3 == nil {
			return nil, fmt.Errorf("%w: s3 section is required", ErrInvalidConfig)
		}
		return NewS3Backend(ctx, *cfg.S3)
	default:
		return nil, fmt.Errorf("%w: unknown backend type %q", ErrInvalidConfig, cfg.Type)
	}
}
