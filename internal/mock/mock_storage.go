package mock

import (
	"bytes"
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/tx-grouper/internal/storage"
)

// MockStorage is a mock implementation of storage.Storage.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

// Upload mocks the Upload method.
func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	args := m.Called(ctx, key, reader)
	return args.Error(0)
}

// Download mocks the Download method.
func (m *MockStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// GetURL mocks the GetURL method.
func (m *MockStorage) GetURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// ExpectUpload sets up an expectation for Upload.
func (m *MockStorage) ExpectUpload(key string, err error) *mock.Call {
	return m.On("Upload", mock.Anything, key, mock.Anything).Return(err)
}

// ExpectDownload sets up an expectation for Download.
func (m *MockStorage) ExpectDownload(key string, reader io.ReadCloser, err error) *mock.Call {
	return m.On("Download", mock.Anything, key).Return(reader, err)
}

// ExpectDownloadString sets up a Download returning content.
func (m *MockStorage) ExpectDownloadString(key, content string) *mock.Call {
	return m.ExpectDownload(key, io.NopCloser(bytes.NewBufferString(content)), nil)
}

// ExpectAnyUpload sets up an expectation for any Upload call.
func (m *MockStorage) ExpectAnyUpload(err error) *mock.Call {
	return m.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(err)
}
