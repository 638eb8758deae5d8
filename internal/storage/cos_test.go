package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tx-grouper/pkg/config"
	apperrors "github.com/tx-grouper/pkg/errors"
)

// fakeBucket is a minimal in-memory COS object endpoint.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBucket(t *testing.T) (*fakeBucket, *httptest.Server) {
	b := &fakeBucket{objects: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBucket) get(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	return data, ok
}

func (b *fakeBucket) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := b.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = io.WriteString(w, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestNewCOSStorage_Validation(t *testing.T) {
	t.Run("MissingBucket", func(t *testing.T) {
		s, err := NewCOSStorage(&COSConfig{Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"})
		assert.Nil(t, s)
		assert.Contains(t, err.Error(), "bucket and region are required")
	})

	t.Run("MissingRegion", func(t *testing.T) {
		_, err := NewCOSStorage(&COSConfig{Bucket: "b", SecretID: "id", SecretKey: "key"})
		assert.Contains(t, err.Error(), "bucket and region are required")
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		_, err := NewCOSStorage(&COSConfig{Bucket: "b", Region: "ap-guangzhou"})
		assert.Contains(t, err.Error(), "credentials are required")
	})

	t.Run("EndpointReplacesRegion", func(t *testing.T) {
		s, err := NewCOSStorage(&COSConfig{Endpoint: "http://127.0.0.1:9000/", SecretID: "id", SecretKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, "http://127.0.0.1:9000/batches/a.json", s.GetURL("batches/a.json"))
	})
}

func TestCOSStorage_GetURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *COSConfig
		key      string
		expected string
	}{
		{
			name:     "DefaultDomainAndScheme",
			cfg:      &COSConfig{Bucket: "batches-1250000000", Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"},
			key:      "main/batch.json",
			expected: "https://batches-1250000000.cos.ap-guangzhou.myqcloud.com/main/batch.json",
		},
		{
			name:     "CustomDomainAndScheme",
			cfg:      &COSConfig{Bucket: "b", Region: "r", SecretID: "id", SecretKey: "key", Domain: "example.com", Scheme: "http"},
			key:      "/x.json",
			expected: "http://b.cos.r.example.com/x.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewCOSStorage(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s.GetURL(tt.key))
		})
	}
}

func TestCOSStorage_RoundTrip(t *testing.T) {
	bucket, srv := newFakeBucket(t)
	s, err := NewCOSStorage(&COSConfig{Endpoint: srv.URL, SecretID: "id", SecretKey: "key"})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "main/a.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Upload(ctx, "main/a.json", strings.NewReader(`[1,2]`)))
	stored, _ := bucket.get("main/a.json")
	assert.Equal(t, []byte(`[1,2]`), stored)

	ok, err = s.Exists(ctx, "main/a.json")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Download(ctx, "main/a.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(data))

	require.NoError(t, s.Delete(ctx, "main/a.json"))
	_, found := bucket.get("main/a.json")
	assert.False(t, found)
}

func TestCOSStorage_DownloadMissing(t *testing.T) {
	_, srv := newFakeBucket(t)
	s, err := NewCOSStorage(&COSConfig{Endpoint: srv.URL, SecretID: "id", SecretKey: "key"})
	require.NoError(t, err)

	_, err = s.Download(context.Background(), "absent.json")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestNewStorage(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		s, err := NewStorage(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStorage{}, s)
	})

	t.Run("EmptyTypeIsLocal", func(t *testing.T) {
		s, err := NewStorage(&config.StorageConfig{LocalPath: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStorage{}, s)
	})

	t.Run("COS", func(t *testing.T) {
		s, err := NewStorage(&config.StorageConfig{
			Type: "cos", Bucket: "b", Region: "ap-guangzhou", SecretID: "id", SecretKey: "key",
		})
		require.NoError(t, err)
		assert.IsType(t, &COSStorage{}, s)
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"Nil", nil, "storage config is nil"},
		{"UnknownType", &config.StorageConfig{Type: "s3"}, "unsupported storage type"},
		{"LocalNoPath", &config.StorageConfig{Type: "local"}, "local storage path is required"},
		{"COSNoBucket", &config.StorageConfig{Type: "cos", Region: "r"}, "COS bucket is required"},
		{"COSNoRegion", &config.StorageConfig{Type: "cos", Bucket: "b"}, "COS region is required"},
		{"COSNoCreds", &config.StorageConfig{Type: "cos", Bucket: "b", Region: "r"}, "COS credentials are required"},
		{"COSEndpoint", &config.StorageConfig{Type: "cos", Bucket: "b", Endpoint: "http://x", SecretID: "i", SecretKey: "k"}, ""},
		{"LocalOK", &config.StorageConfig{Type: "local", LocalPath: "/tmp"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
