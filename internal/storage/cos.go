package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"

	apperrors "github.com/tx-grouper/pkg/errors"
)

// COSConfig holds COS-specific configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // e.g., "myqcloud.com"
	Scheme    string // e.g., "https" or "http"
	Endpoint  string // full bucket URL, overrides Bucket/Region/Domain
}

// COSStorage implements Storage interface for Tencent Cloud COS.
type COSStorage struct {
	client    *cos.Client
	bucketURL *url.URL
}

// NewCOSStorage creates a new COSStorage instance.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if cfg.Endpoint == "" && (cfg.Bucket == "" || cfg.Region == "") {
		return nil, apperrors.New(apperrors.CodeConfigError, "bucket and region are required for COS storage")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, apperrors.New(apperrors.CodeConfigError, "credentials are required for COS storage")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	rawBucketURL := cfg.Endpoint
	if rawBucketURL == "" {
		rawBucketURL = fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain)
	}
	bucketURL, err := url.Parse(strings.TrimRight(rawBucketURL, "/"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to parse bucket URL", err)
	}

	baseURL := &cos.BaseURL{BucketURL: bucketURL}
	if cfg.Endpoint == "" {
		serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to parse service URL", err)
		}
		baseURL.ServiceURL = serviceURL
	}

	client := cos.NewClient(baseURL, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSStorage{client: client, bucketURL: bucketURL}, nil
}

// Upload uploads data from reader to the specified key.
func (s *COSStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	if _, err := s.client.Object.Put(ctx, key, reader, nil); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to upload to COS", err)
	}
	return nil
}

// Download downloads data from the specified key.
func (s *COSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("object not found: %s", key), err)
		}
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "failed to download from COS", err)
	}
	return resp.Body, nil
}

// Delete deletes the object at the specified key.
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key, nil); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageError, "failed to delete from COS", err)
	}
	return nil
}

// Exists checks if an object exists at the specified key.
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeStorageError, "failed to check existence in COS", err)
	}
	return ok, nil
}

// GetURL returns the public URL for the specified key.
func (s *COSStorage) GetURL(key string) string {
	return s.bucketURL.String() + "/" + strings.TrimLeft(key, "/")
}
