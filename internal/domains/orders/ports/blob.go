package ports

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUpload wraps every failure returned by a blob store while storing content.
	ErrUpload       = errors.New("blob upload failed")
	ErrBlobNotFound = errors.New("blob not found")
)

// StoredBlob identifies uploaded content.
type StoredBlob struct {
	Key string
	URL string
}

// BlobStore keeps attachment content outside the order store.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, filename string) (StoredBlob, error)
	Download(ctx context.Context, url string) (io.ReadCloser, error)
	Delete(ctx context.Context, url string) error
}
