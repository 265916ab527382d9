package blob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// Driver names accepted by New.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
	DriverGCS   = "gcs"
)

// Config selects and configures a blob store driver.
type Config struct {
	Driver string

	LocalDir       string
	LocalURLPrefix string

	S3Region        string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string

	GCSBucket        string
	GCSPrefix        string
	GCSPublicBaseURL string
}

// New builds the configured blob store. An empty driver selects local storage.
func New(ctx context.Context, cfg Config) (ports.BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverLocal:
		dir := cfg.LocalDir
		if dir == "" {
			dir = "./storage/uploads"
		}
		prefix := cfg.LocalURLPrefix
		if prefix == "" {
			prefix = "/uploads"
		}
		return NewLocal(dir, prefix), nil
	case DriverS3:
		if cfg.S3Region == "" || cfg.S3Bucket == "" || cfg.S3PublicBaseURL == "" {
			return nil, fmt.Errorf("s3 blob store requires region, bucket and public base url")
		}
		return NewS3(ctx, S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	case DriverGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("gcs blob store requires a bucket")
		}
		return NewGCS(ctx, GCSConfig{
			Bucket:        cfg.GCSBucket,
			Prefix:        cfg.GCSPrefix,
			PublicBaseURL: cfg.GCSPublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver: %s", cfg.Driver)
	}
}

// objectKey names a new object after a random id, keeping a sanitized extension.
func objectKey(prefix, filename string) string {
	key := uuid.NewString() + safeExt(filename)
	if p := strings.Trim(prefix, "/"); p != "" {
		key = p + "/" + key
	}
	return key
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// keyFromURL strips base from url. ok is false when url was not issued under base.
func keyFromURL(base, url string) (string, bool) {
	base = strings.TrimRight(base, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
