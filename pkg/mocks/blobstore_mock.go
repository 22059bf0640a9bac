package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockBlobStore is a mock implementation of the storage.BlobStore interface.
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Store(ctx context.Context, r io.Reader, objectName, contentType string, size int64) (string, error) {
	args := m.Called(ctx, r, objectName, contentType, size)

	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	args := m.Called(ctx, objectName)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	reader, _ := args.Get(0).(io.ReadCloser)

	return reader, args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)

	return args.Error(0)
}
