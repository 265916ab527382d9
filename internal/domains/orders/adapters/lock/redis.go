package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// DefaultTTL bounds how long a crashed holder can block an order.
const DefaultTTL = 30 * time.Second

var _ ports.Locker = (*RedisLocker)(nil)

// RedisLocker serializes order mutations across processes. Obtain is attempted
// once; a held key fails immediately with ports.ErrLockNotObtained.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*RedisLocker)

func WithTTL(ttl time.Duration) Option {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewRedisLocker(client goredis.UniversalClient, opts ...Option) *RedisLocker {
	l := &RedisLocker{
		client: redislock.New(client),
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	held, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ports.ErrLockNotObtained
		}
		return nil, err
	}
	return func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WarnContext(ctx, "failed to release order lock", slog.String("key", key), slog.String("error", err.Error()))
		}
	}, nil
}
