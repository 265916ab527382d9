package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

var _ ports.BlobStore = (*Local)(nil)

// Local keeps blobs on the local filesystem and serves them under URLPrefix.
type Local struct {
	BaseDir   string
	URLPrefix string
}

func NewLocal(baseDir, urlPrefix string) *Local {
	return &Local{BaseDir: baseDir, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (l *Local) Upload(ctx context.Context, data []byte, filename string) (ports.StoredBlob, error) {
	if err := ctx.Err(); err != nil {
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	if err := os.MkdirAll(l.BaseDir, 0o755); err != nil {
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	key := objectKey("", filename)
	f, err := os.OpenFile(filepath.Join(l.BaseDir, key), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	return ports.StoredBlob{Key: key, URL: l.URLPrefix + "/" + key}, nil
}

func (l *Local) Download(_ context.Context, url string) (io.ReadCloser, error) {
	path, err := l.path(url)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.ErrBlobNotFound
		}
		return nil, err
	}
	return f, nil
}

func (l *Local) Delete(_ context.Context, url string) error {
	path, err := l.path(url)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.ErrBlobNotFound
		}
		return err
	}
	return nil
}

func (l *Local) path(url string) (string, error) {
	key, ok := keyFromURL(l.URLPrefix, url)
	if !ok {
		return "", fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	return filepath.Join(l.BaseDir, filepath.Base(key)), nil
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.BaseDir) }
