package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/orderflow/internal/clients/http/feed"
	"github.com/Apurer/orderflow/internal/domains/orders/adapters/blob"
	orderevents "github.com/Apurer/orderflow/internal/domains/orders/adapters/events"
	"github.com/Apurer/orderflow/internal/domains/orders/adapters/external/shopify"
	orderlock "github.com/Apurer/orderflow/internal/domains/orders/adapters/lock"
	ordermemory "github.com/Apurer/orderflow/internal/domains/orders/adapters/memory"
	orderobs "github.com/Apurer/orderflow/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/Apurer/orderflow/internal/domains/orders/adapters/persistence/postgres"
	orderapp "github.com/Apurer/orderflow/internal/domains/orders/application"
	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
	usermemory "github.com/Apurer/orderflow/internal/domains/users/adapters/memory"
	userobs "github.com/Apurer/orderflow/internal/domains/users/adapters/observability"
	userpostgres "github.com/Apurer/orderflow/internal/domains/users/adapters/persistence/postgres"
	userapp "github.com/Apurer/orderflow/internal/domains/users/application"
	userports "github.com/Apurer/orderflow/internal/domains/users/ports"
	"github.com/Apurer/orderflow/internal/platform/migrations"
	platformobservability "github.com/Apurer/orderflow/internal/platform/observability"
	platformpostgres "github.com/Apurer/orderflow/internal/platform/postgres"
	platformredis "github.com/Apurer/orderflow/internal/platform/redis"
)

// Stack holds the orders and users services with every adapter behind them.
type Stack struct {
	Logger *slog.Logger
	Orders orderports.Service
	Users  userports.Service
	// Source is nil when no feed is configured.
	Source orderports.OrderSource

	cleanups []func()
}

// BuildStack wires repositories, locks, blob storage, events and observability
// decorators. Postgres and Redis are optional and fall back to in-process adapters.
func BuildStack(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Stack, error) {
	logger := effectiveLogger(instruments)
	stack := &Stack{Logger: logger}

	var (
		orderRepo   orderports.Repository       = ordermemory.NewRepository()
		idempotency orderports.IdempotencyStore = ordermemory.NewIdempotencyStore()
		userRepo    userports.Repository        = usermemory.NewRepository()
	)
	db, closeDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresOptions(), logger)
	stack.cleanups = append(stack.cleanups, closeDB)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			stack.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		orderRepo = orderpostgres.NewRepository(db)
		idempotency = orderpostgres.NewIdempotencyStore(db)
		userRepo = userpostgres.NewRepository(db)
		logger.Info("order and user repositories configured with postgres")
	}

	users := userobs.New(
		userapp.NewService(userRepo),
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer("internal.users.application")),
		userobs.WithMeter(instruments.Meter("internal.users.application")),
	)

	blobs, err := blob.New(ctx, cfg.BlobConfig())
	if err != nil {
		stack.Close()
		return nil, fmt.Errorf("configure blob store: %w", err)
	}
	logger.Info("blob store configured", slog.String("driver", cfg.BlobDriver))

	bus := orderevents.NewGoChannel(logger)
	stack.cleanups = append(stack.cleanups, func() { _ = bus.Close() })
	if err := orderevents.Consume(ctx, bus, logger, orderevents.AuditLog(logger)); err != nil {
		stack.Close()
		return nil, fmt.Errorf("subscribe audit log: %w", err)
	}

	opts := []orderapp.Option{
		orderapp.WithBlobStore(blobs),
		orderapp.WithDirectory(users),
		orderapp.WithEventPublisher(orderevents.NewPublisher(bus)),
		orderapp.WithIdempotencyStore(idempotency),
		orderapp.WithLogger(logger),
		orderapp.WithUploadTimeout(cfg.UploadTimeout),
	}
	redisClient, closeRedis := platformredis.ConnectOptional(ctx, cfg.RedisURL, logger)
	stack.cleanups = append(stack.cleanups, closeRedis)
	if redisClient != nil {
		opts = append(opts, orderapp.WithLocker(orderlock.NewRedisLocker(
			redisClient,
			orderlock.WithTTL(cfg.OrderLockTTL),
			orderlock.WithLogger(logger),
		)))
	}

	stack.Orders = orderobs.New(
		orderapp.NewService(orderRepo, opts...),
		orderobs.WithLogger(logger),
		orderobs.WithTracer(instruments.Tracer("internal.orders.application")),
		orderobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	stack.Users = users

	if cfg.FeedBaseURL != "" {
		feedClient, err := feed.NewClient(cfg.FeedBaseURL, cfg.FeedAccessToken, &http.Client{Timeout: cfg.FeedTimeout})
		if err != nil {
			stack.Close()
			return nil, fmt.Errorf("configure order feed: %w", err)
		}
		stack.Source = shopify.NewSource(feedClient)
		logger.Info("order feed configured", slog.String("baseURL", cfg.FeedBaseURL))
	} else {
		logger.Warn("FEED_BASE_URL not set, order imports will find nothing")
	}
	return stack, nil
}

// Close releases connections in reverse order of acquisition.
func (s *Stack) Close() {
	if s == nil {
		return
	}
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
}

// ConnectTemporal dials Temporal with tracing and structured logging.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, fmt.Errorf("temporal disabled via TEMPORAL_DISABLED")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
