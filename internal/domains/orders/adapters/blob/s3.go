package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

var _ ports.BlobStore = (*S3)(nil)

// S3 stores blobs in an S3 bucket exposed through PublicBaseURL.
type S3 struct {
	Client        *s3.Client
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	return &S3{
		Client:        s3.NewFromConfig(awsCfg),
		Bucket:        cfg.Bucket,
		Prefix:        cfg.Prefix,
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *S3) Upload(ctx context.Context, data []byte, filename string) (ports.StoredBlob, error) {
	key := objectKey(s.Prefix, filename)
	contentType := http.DetectContentType(data)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return ports.StoredBlob{}, fmt.Errorf("%w: %w", ports.ErrUpload, err)
	}
	return ports.StoredBlob{Key: key, URL: s.PublicBaseURL + "/" + key}, nil
}

func (s *S3) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	key, ok := keyFromURL(s.PublicBaseURL, url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.Bucket, Key: &key})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ports.ErrBlobNotFound
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *S3) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(s.PublicBaseURL, url)
	if !ok {
		return fmt.Errorf("%w: %s", ports.ErrBlobNotFound, url)
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.Bucket, Key: &key})
	return err
}

func (s *S3) String() string { return fmt.Sprintf("s3(%s/%s)", s.Bucket, s.Prefix) }
