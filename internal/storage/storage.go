package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Sosyalles/user-service-api/internal/config"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
)

type ObjectInfo struct {
	Size        int64
	ContentType string
}

// PhotoStore persists uploaded profile photos by generated file name.
type PhotoStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// New builds the PhotoStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (PhotoStore, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir)
	case "minio":
		store, err := NewMinIOStore(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ValidateName rejects anything that is not a single plain path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
