package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	userdomain "github.com/Apurer/orderflow/internal/domains/users/domain"
	userports "github.com/Apurer/orderflow/internal/domains/users/ports"
)

const tracerName = "github.com/Apurer/orderflow/internal/domains/users/adapters/observability/service"

// Service decorates the user directory service with tracing, logging, and metrics.
type Service struct {
	inner   userports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core user service.
func New(inner userports.Service, opts ...Option) userports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Register(ctx context.Context, user *userdomain.User) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register", trace.WithAttributes(
		attribute.String("user.id", user.ID), attribute.String("user.role", string(user.Role))))
	defer span.End()
	s.logInfo(ctx, "registering user", slog.String("user.id", user.ID), slog.String("role", string(user.Role)))
	result, err := s.inner.Register(ctx, user)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register user", slog.String("user.id", user.ID))
	}
	s.metrics.recordRegistered(ctx, result.Role)
	s.logInfo(ctx, "user registered", slog.String("user.id", result.ID))
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.GetByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()
	result, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load user", slog.String("user.id", id))
	}
	return result, nil
}

func (s *Service) List(ctx context.Context, role userdomain.Role) ([]*userdomain.User, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.List", trace.WithAttributes(attribute.String("user.role", string(role))))
	defer span.End()
	result, err := s.inner.List(ctx, role)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list users", slog.String("role", string(role)))
	}
	span.SetAttributes(attribute.Int("user.count", len(result)))
	return result, nil
}

func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.DisplayName", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()
	name, err := s.inner.DisplayName(ctx, id)
	if err != nil {
		s.metrics.recordLookupMiss(ctx)
		return "", s.handleError(ctx, span, err, "failed to resolve display name", slog.String("user.id", id))
	}
	return name, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

type serviceMetrics struct {
	usersRegistered metric.Int64Counter
	lookupMisses    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registered, _ := m.Int64Counter("users.service.registered", metric.WithDescription("Number of users registered"))
	misses, _ := m.Int64Counter("users.service.lookup_misses", metric.WithDescription("Number of display name lookups that failed"))
	return serviceMetrics{usersRegistered: registered, lookupMisses: misses}
}

func (m serviceMetrics) recordRegistered(ctx context.Context, role userdomain.Role) {
	if m.usersRegistered != nil {
		m.usersRegistered.Add(ctx, 1, metric.WithAttributes(attribute.String("user.role", string(role))))
	}
}

func (m serviceMetrics) recordLookupMiss(ctx context.Context) {
	if m.lookupMisses != nil {
		m.lookupMisses.Add(ctx, 1)
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ userports.Service = (*Service)(nil)
