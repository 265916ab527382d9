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

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/orderflow/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
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

func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateOrder", actorAttrs(input.Actor)...)
	defer span.End()

	s.logInfo(ctx, "creating order", slog.String("actor.id", input.Actor.ID))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("actor.id", input.Actor.ID))
	}
	span.SetAttributes(attribute.String("order.id", result.ID))
	s.metrics.recordCreated(ctx, result.Priority)
	s.logInfo(ctx, "order created", slog.String("order.id", result.ID), slog.String("priority", string(result.Priority)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.String("order.id", id))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Status)))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*domain.Order, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders",
		attribute.Bool("list.sort_by_recency", input.SortByRecency),
		attribute.String("list.user_id", input.ForUserID))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("list.count", len(result)))
	return result, nil
}

func (s *Service) Transition(ctx context.Context, input ordertypes.TransitionInput) (*domain.Order, error) {
	attrs := append(actorAttrs(input.Actor),
		attribute.String("order.id", input.OrderID),
		attribute.String("order.target_status", string(input.Target)),
		attribute.Int("order.files", len(input.Files)),
		attribute.Bool("order.shipment", input.Shipment != nil))
	ctx, span := s.startSpan(ctx, "Service.Transition", attrs...)
	defer span.End()

	s.logInfo(ctx, "transitioning order",
		slog.String("order.id", input.OrderID),
		slog.String("target", string(input.Target)),
		slog.String("actor.role", string(input.Actor.Role)))
	result, err := s.inner.Transition(ctx, input)
	if err != nil {
		s.metrics.recordTransitionFailed(ctx, input.Target)
		return nil, s.handleError(ctx, span, err, "failed to transition order",
			slog.String("order.id", input.OrderID), slog.String("target", string(input.Target)))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order transitioned",
		slog.String("order.id", result.ID),
		slog.String("status", string(result.Status)),
		slog.Int64("version", result.Version))
	return result, nil
}

func (s *Service) AddNote(ctx context.Context, input ordertypes.AddNoteInput) (*domain.Order, error) {
	attrs := append(actorAttrs(input.Actor),
		attribute.String("order.id", input.OrderID),
		attribute.String("note.audience", string(input.Audience)))
	ctx, span := s.startSpan(ctx, "Service.AddNote", attrs...)
	defer span.End()

	result, err := s.inner.AddNote(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to add note", slog.String("order.id", input.OrderID))
	}
	s.metrics.recordNote(ctx, "added")
	s.logInfo(ctx, "note added", slog.String("order.id", result.ID))
	return result, nil
}

func (s *Service) EditNote(ctx context.Context, input ordertypes.EditNoteInput) (*domain.Order, error) {
	attrs := append(actorAttrs(input.Actor),
		attribute.String("order.id", input.OrderID),
		attribute.String("note.id", input.NoteID))
	ctx, span := s.startSpan(ctx, "Service.EditNote", attrs...)
	defer span.End()

	result, err := s.inner.EditNote(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to edit note",
			slog.String("order.id", input.OrderID), slog.String("note.id", input.NoteID))
	}
	s.metrics.recordNote(ctx, "edited")
	s.logInfo(ctx, "note edited", slog.String("order.id", result.ID), slog.String("note.id", input.NoteID))
	return result, nil
}

func (s *Service) RemoveAttachment(ctx context.Context, input ordertypes.RemoveAttachmentInput) (*domain.Order, error) {
	attrs := append(actorAttrs(input.Actor),
		attribute.String("order.id", input.OrderID),
		attribute.String("attachment.id", input.AttachmentID))
	ctx, span := s.startSpan(ctx, "Service.RemoveAttachment", attrs...)
	defer span.End()

	s.logInfo(ctx, "removing attachment", slog.String("order.id", input.OrderID), slog.String("attachment.id", input.AttachmentID))
	result, err := s.inner.RemoveAttachment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to remove attachment",
			slog.String("order.id", input.OrderID), slog.String("attachment.id", input.AttachmentID))
	}
	s.logInfo(ctx, "attachment removed", slog.String("order.id", result.ID), slog.String("attachment.id", input.AttachmentID))
	return result, nil
}

func (s *Service) DownloadAttachment(ctx context.Context, input ordertypes.AttachmentIdentifier) (*ordertypes.AttachmentDownload, error) {
	ctx, span := s.startSpan(ctx, "Service.DownloadAttachment",
		attribute.String("order.id", input.OrderID),
		attribute.String("attachment.id", input.AttachmentID))
	defer span.End()

	result, err := s.inner.DownloadAttachment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to download attachment",
			slog.String("order.id", input.OrderID), slog.String("attachment.id", input.AttachmentID))
	}
	return result, nil
}

func (s *Service) ImportOrders(ctx context.Context, candidates []ordertypes.ImportCandidate) (*ordertypes.ImportReport, error) {
	ctx, span := s.startSpan(ctx, "Service.ImportOrders", attribute.Int("import.candidates", len(candidates)))
	defer span.End()

	s.logInfo(ctx, "importing orders", slog.Int("candidates", len(candidates)))
	result, err := s.inner.ImportOrders(ctx, candidates)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to import orders")
	}
	span.SetAttributes(
		attribute.Int("import.imported", len(result.Imported)),
		attribute.Int("import.skipped", len(result.Skipped)),
		attribute.Int("import.failed", len(result.Failed)))
	s.metrics.recordImport(ctx, result)
	s.logInfo(ctx, "orders imported",
		slog.Int("imported", len(result.Imported)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

func actorAttrs(actor domain.User) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
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

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersCreated      metric.Int64Counter
	transitions        metric.Int64Counter
	transitionFailures metric.Int64Counter
	notes              metric.Int64Counter
	imports            metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.created", metric.WithDescription("Number of orders created directly"))
	transitions, _ := m.Int64Counter("orders.service.transitions", metric.WithDescription("Number of successful status transitions"))
	transitionFailures, _ := m.Int64Counter("orders.service.transition_failures", metric.WithDescription("Number of rejected status transitions"))
	notes, _ := m.Int64Counter("orders.service.notes", metric.WithDescription("Number of notes added or edited"))
	imports, _ := m.Int64Counter("orders.service.imports", metric.WithDescription("Number of import candidates processed"))
	return serviceMetrics{
		ordersCreated:      ordersCreated,
		transitions:        transitions,
		transitionFailures: transitionFailures,
		notes:              notes,
		imports:            imports,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, priority domain.Priority) {
	addCounter(ctx, m.ordersCreated, 1, attribute.String("order.priority", string(priority)))
}

func (m serviceMetrics) recordTransition(ctx context.Context, status domain.Status) {
	addCounter(ctx, m.transitions, 1, attribute.String("order.status", string(status)))
}

func (m serviceMetrics) recordTransitionFailed(ctx context.Context, target domain.Status) {
	addCounter(ctx, m.transitionFailures, 1, attribute.String("order.target_status", string(target)))
}

func (m serviceMetrics) recordNote(ctx context.Context, action string) {
	addCounter(ctx, m.notes, 1, attribute.String("note.action", action))
}

func (m serviceMetrics) recordImport(ctx context.Context, report *ordertypes.ImportReport) {
	addCounter(ctx, m.imports, int64(len(report.Imported)), attribute.String("import.outcome", "imported"))
	addCounter(ctx, m.imports, int64(len(report.Skipped)), attribute.String("import.outcome", "skipped"))
	addCounter(ctx, m.imports, int64(len(report.Failed)), attribute.String("import.outcome", "failed"))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil || value == 0 {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
