package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrEmptyDSN is returned when no connection string is configured.
var ErrEmptyDSN = errors.New("postgres DSN is empty")

const (
	defaultMaxOpenConns    = 20
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

// Options configures the connection pool. Zero values fall back to defaults.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// normalized fills unset fields and keeps the idle pool within the open limit.
func (o Options) normalized() Options {
	o.DSN = strings.TrimSpace(o.DSN)
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = defaultMaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaultMaxIdleConns
	}
	if o.MaxIdleConns > o.MaxOpenConns {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = defaultPingTimeout
	}
	return o
}

// Config returns the GORM settings shared by every connection. Driver errors are
// translated so adapters can match gorm.ErrDuplicatedKey.
func Config() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

// Open dials PostgreSQL, applies the pool limits and pings within PingTimeout.
func Open(ctx context.Context, opts Options) (*gorm.DB, error) {
	opts = opts.normalized()
	if opts.DSN == "" {
		return nil, ErrEmptyDSN
	}
	db, err := gorm.Open(postgres.Open(opts.DSN), Config())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ConnectOptional is Open for processes that can run on in-memory stores.
// A missing DSN or a failed dial is logged and yields a nil DB. The returned
// cleanup is always safe to call.
func ConnectOptional(ctx context.Context, opts Options, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	noop := func() {}

	db, err := Open(ctx, opts)
	switch {
	case errors.Is(err, ErrEmptyDSN):
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory stores")
		return nil, noop
	case err != nil:
		logger.Warn("postgres unavailable, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil, noop
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("postgres pool unavailable, falling back to in-memory stores", slog.String("error", err.Error()))
		return nil, noop
	}
	normalized := opts.normalized()
	logger.Info("postgres connection established",
		slog.Int("max_open_conns", normalized.MaxOpenConns),
		slog.Int("max_idle_conns", normalized.MaxIdleConns),
	)
	return db, func() { _ = sqlDB.Close() }
}
