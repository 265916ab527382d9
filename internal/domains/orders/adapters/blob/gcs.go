package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

var _ ports.BlobStore = (*GCS)(nil)

// GCS stores blobs in a Google Cloud Storage bucket using application default credentials.
type GCS struct {
	Client        *storage.Client
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

type GCSConfig struct {
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &GCS{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix, PublicBaseURL: base}, nil
}

func (g *GCS) Upload(ctx context.Context, data []byte, filename string) (ports.StoredBlob, error) {
	key := objectKey(g.Prefix, filename)
	wc := g.Client.Bucket(g.Bucket).Object(key).NewWriter(ctx)
	wc.ContentType = http.DetectContentType(data)
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	if err := wc.Close(); err != nil {
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	return ports.StoredBlob{Key: key, URL: g.PublicBaseURL + "/" + key}, nil
}

func (g *GCS) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	key, ok := keyFromURL(g.PublicBaseURL, url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	reader, err := g.Client.Bucket(g.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ports.ErrBlobNotFound
		}
		return nil, err
	}
	return reader, nil
}

func (g *GCS) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(g.PublicBaseURL, url)
	if !ok {
		return fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	if err := g.Client.Bucket(g.Bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ports.ErrBlobNotFound
		}
		return err
	}
	return nil
}

// Close releases the underlying client.
func (g *GCS) Close() error { return g.Client.Close() }

func (g *GCS) String() string { return fmt.Sprintf("gcs(%s/%s)", g.Bucket, g.Prefix) }
