// Package storage abstracts the blob store holding uploaded artifact files.
package storage

import (
	"context"
	"io"
)

// BlobStore is the contract the artifact upload and cascade delete flows
// depend on. The trailing path segment of a URL returned by Store is the
// canonical object name for Get and Delete.
type BlobStore interface {
	// Store uploads the object and returns a browser-accessible URL for it.
	Store(ctx context.Context, r io.Reader, objectName, contentType string, size int64) (string, error)

	// Get returns a reader for the object's content.
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)

	// Delete removes the object.
	Delete(ctx context.Context, objectName string) error
}
