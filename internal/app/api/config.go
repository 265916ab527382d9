package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"

	"github.com/Apurer/orderflow/internal/domains/orders/adapters/blob"
	platformpostgres "github.com/Apurer/orderflow/internal/platform/postgres"
)

// Config carries environment-driven settings shared by the API, worker and import processes.
type Config struct {
	Port string `conf:"default:8080,env:PORT"`

	PostgresDSN             string        `conf:"env:POSTGRES_DSN,noprint"`
	PostgresMaxOpenConns    int           `conf:"default:20,env:POSTGRES_MAX_OPEN_CONNS"`
	PostgresMaxIdleConns    int           `conf:"default:5,env:POSTGRES_MAX_IDLE_CONNS"`
	PostgresConnMaxLifetime time.Duration `conf:"default:30m,env:POSTGRES_CONN_MAX_LIFETIME"`
	RedisURL                string        `conf:"env:REDIS_URL,noprint"`

	TemporalAddress   string `conf:"default:localhost:7233,env:TEMPORAL_ADDRESS"`
	TemporalNamespace string `conf:"default:default,env:TEMPORAL_NAMESPACE"`
	TemporalDisabled  bool   `conf:"default:false,env:TEMPORAL_DISABLED"`

	BlobDriver           string `conf:"default:local,env:BLOB_DRIVER"`
	LocalUploadDir       string `conf:"default:./storage/uploads,env:LOCAL_UPLOAD_DIR"`
	LocalUploadURLPrefix string `conf:"default:/uploads,env:LOCAL_UPLOAD_URL_PREFIX"`
	S3Region             string `conf:"env:S3_REGION"`
	S3Bucket             string `conf:"env:S3_BUCKET"`
	S3Prefix             string `conf:"env:S3_PREFIX"`
	S3PublicBaseURL      string `conf:"env:S3_PUBLIC_BASE_URL"`
	GCSBucket            string `conf:"env:GCS_BUCKET"`
	GCSPrefix            string `conf:"env:GCS_PREFIX"`
	GCSPublicBaseURL     string `conf:"env:GCS_PUBLIC_BASE_URL"`

	UploadTimeout time.Duration `conf:"default:30s,env:UPLOAD_TIMEOUT"`
	OrderLockTTL  time.Duration `conf:"default:30s,env:ORDER_LOCK_TTL"`

	FeedBaseURL     string        `conf:"env:FEED_BASE_URL"`
	FeedAccessToken string        `conf:"env:FEED_ACCESS_TOKEN,noprint"`
	FeedTimeout     time.Duration `conf:"default:30s,env:FEED_TIMEOUT"`
	ImportInterval  time.Duration `conf:"default:15m,env:IMPORT_INTERVAL"`
}

// LoadConfig reads an optional .env file, then the environment, applies defaults and validates.
func LoadConfig() (Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if _, err := conf.Parse("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.BlobDriver)) {
	case "", blob.DriverLocal:
	case blob.DriverS3:
		if c.S3Region == "" || c.S3Bucket == "" || c.S3PublicBaseURL == "" {
			errs = append(errs, errors.New("BLOB_DRIVER=s3 requires S3_REGION, S3_BUCKET and S3_PUBLIC_BASE_URL"))
		}
	case blob.DriverGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("BLOB_DRIVER=gcs requires GCS_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("BLOB_DRIVER must be one of local, s3, gcs (got %q)", c.BlobDriver))
	}
	if c.UploadTimeout <= 0 {
		errs = append(errs, errors.New("UPLOAD_TIMEOUT must be positive"))
	}
	if c.OrderLockTTL <= 0 {
		errs = append(errs, errors.New("ORDER_LOCK_TTL must be positive"))
	}
	if c.PostgresMaxOpenConns < 1 {
		errs = append(errs, errors.New("POSTGRES_MAX_OPEN_CONNS must be at least 1"))
	}
	if c.ImportInterval < time.Minute {
		errs = append(errs, errors.New("IMPORT_INTERVAL must be at least 1m"))
	}
	if c.FeedBaseURL != "" && c.FeedAccessToken == "" {
		errs = append(errs, errors.New("FEED_ACCESS_TOKEN is required when FEED_BASE_URL is set"))
	}
	return errors.Join(errs...)
}

// PostgresOptions projects the connection pool settings.
func (c Config) PostgresOptions() platformpostgres.Options {
	return platformpostgres.Options{
		DSN:             c.PostgresDSN,
		MaxOpenConns:    c.PostgresMaxOpenConns,
		MaxIdleConns:    c.PostgresMaxIdleConns,
		ConnMaxLifetime: c.PostgresConnMaxLifetime,
	}
}

// BlobConfig projects the blob store settings.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{
		Driver:           c.BlobDriver,
		LocalDir:         c.LocalUploadDir,
		LocalURLPrefix:   c.LocalUploadURLPrefix,
		S3Region:         c.S3Region,
		S3Bucket:         c.S3Bucket,
		S3Prefix:         c.S3Prefix,
		S3PublicBaseURL:  c.S3PublicBaseURL,
		GCSBucket:        c.GCSBucket,
		GCSPrefix:        c.GCSPrefix,
		GCSPublicBaseURL: c.GCSPublicBaseURL,
	}
}
