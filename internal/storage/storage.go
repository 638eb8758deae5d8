// Package storage provides object storage for transaction batches and
// grouping plans.
package storage

import (
	"context"
	"io"

	"github.com/tx-grouper/pkg/config"
	apperrors "github.com/tx-grouper/pkg/errors"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload uploads data from reader to the specified key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download downloads data from the specified key.
	// A missing object yields an error matching errors.ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete deletes the object at the specified key.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the URL for the specified key (if applicable).
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
			Endpoint:  cfg.Endpoint,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS bucket is required")
		}
		if cfg.Region == "" && cfg.Endpoint == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS credentials are required")
		}
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return apperrors.New(apperrors.CodeConfigError, "local storage path is required")
		}
	default:
		return apperrors.Newf(apperrors.CodeConfigError, "unsupported storage type: %s", cfg.Type)
	}

	return nil
}
