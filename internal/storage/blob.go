// internal/storage/blob.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/javajoker/plugin-marketplace/internal/config"
)

// ErrNotFound is returned when a key does not resolve to a stored blob.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid blob key")

// Object is an open blob. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// BlobStore persists binary artifacts under opaque, path-like keys.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the blob store selected by the storage driver setting.
func New(cfg *config.Config) (BlobStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3BlobStore(cfg.AWS)
	case "local", "":
		return NewLocalBlobStore(cfg.Storage.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// CleanKey normalises a key and rejects absolute paths and parent references.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if strings.HasPrefix(cleaned, "/") || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
