package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Connect parses url, applies pool settings and verifies connectivity.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// ConnectOptional dials url when set. When url is empty or unreachable it logs and
// returns nil with a no-op cleanup so callers can fall back to in-process locking.
func ConnectOptional(ctx context.Context, url string, logger *slog.Logger) (*goredis.Client, func()) {
	if strings.TrimSpace(url) == "" {
		if logger != nil {
			logger.Warn("REDIS_URL not set, falling back to in-process order locks")
		}
		return nil, func() {}
	}
	client, err := Connect(ctx, url)
	if err != nil {
		if logger != nil {
			logger.Warn("failed to connect to redis, falling back to in-process order locks", slog.String("error", err.Error()))
		}
		return nil, func() {}
	}
	if logger != nil {
		logger.Info("redis connection established")
	}
	return client, func() { _ = client.Close() }
}
