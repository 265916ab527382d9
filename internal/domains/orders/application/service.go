package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// DefaultUploadTimeout bounds the blob uploads of one request.
const DefaultUploadTimeout = 30 * time.Second

// Service orchestrates the orders bounded context use cases.
type Service struct {
	repo          ports.Repository
	blobs         ports.BlobStore
	directory     ports.Directory
	locker        ports.Locker
	events        ports.EventPublisher
	idempotency   ports.IdempotencyStore
	logger        *slog.Logger
	clock         func() time.Time
	newID         func() string
	uploadTimeout time.Duration
}

// Option customizes the service.
type Option func(*Service)

// WithBlobStore sets where uploaded attachments are stored.
func WithBlobStore(blobs ports.BlobStore) Option {
	return func(s *Service) { s.blobs = blobs }
}

// WithDirectory resolves digitizer and vendor display names for derived notes.
func WithDirectory(dir ports.Directory) Option {
	return func(s *Service) { s.directory = dir }
}

// WithLocker replaces the in-process per-order lock.
func WithLocker(locker ports.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithEventPublisher publishes domain events after each successful write.
func WithEventPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

// WithIdempotencyStore enables Idempotency-Key replay for CreateOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idempotency = store }
}

// WithLogger sets the logger used for best-effort side effects.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides note and attachment id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithUploadTimeout bounds attachment uploads.
func WithUploadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.uploadTimeout = d
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:          repo,
		locker:        NewLocalLocker(),
		events:        ports.NoopPublisher{},
		logger:        slog.Default(),
		clock:         time.Now,
		newID:         uuid.NewString,
		uploadTimeout: DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// CreateOrder registers an order directly, outside the external import.
// A repeated idempotency key with the same payload returns the order created first.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, mapError(err)
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return nil, mapError(fmt.Errorf("%w: %q", domain.ErrInvalidPriority, input.Priority))
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.createOrder(ctx, input)
	}
	hash, err := FingerprintCreateOrder(input)
	if err != nil {
		return nil, mapError(fmt.Errorf("%w: fingerprint request: %w", ErrInternal, err))
	}
	existing, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, mapError(err)
	}
	if existing != nil {
		return s.replay(ctx, existing, hash)
	}
	order, err := s.createOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: order.ID})
	if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil && stored.RequestHash == hash {
		s.logger.WarnContext(ctx, "concurrent create with same idempotency key",
			slog.String("order_id", order.ID),
			slog.String("replayed_order_id", stored.OrderID))
		return s.GetOrder(ctx, stored.OrderID)
	}
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) replay(ctx context.Context, record *ports.IdempotencyRecord, hash string) (*domain.Order, error) {
	if record.RequestHash != hash {
		return nil, mapError(fmt.Errorf("%w: key was used for a different request", ports.ErrIdempotencyConflict))
	}
	return s.GetOrder(ctx, record.OrderID)
}

func (s *Service) createOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error) {
	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	order, err := domain.NewOrder(id, input.Customer, now)
	if err != nil {
		return nil, mapError(err)
	}
	order.ShippingAddress = input.ShippingAddress
	order.TextUnderDesign = input.TextUnderDesign
	order.ProductDescription = input.ProductDescription
	order.LineItems = append([]domain.LineItem(nil), input.LineItems...)
	if len(order.LineItems) == 0 {
		order.EnsureLineItems()
	} else if order.ProductDescription == "" {
		order.ProductDescription = domain.FormatProductDescription(order.LineItems)
	}
	if input.Priority != "" {
		order.Priority = input.Priority
	}
	order.AssociateUser(input.Actor)
	if input.Note != "" {
		if _, err := order.AddNote(s.newID(), input.Note, input.Actor, domain.RoleTeam, now); err != nil {
			return nil, mapError(err)
		}
	}
	if err := order.Validate(); err != nil {
		return nil, mapError(err)
	}
	events := order.Events()
	saved, err := s.repo.Insert(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, events)
	return saved, nil
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// ListOrders returns every order, or only those associated with a user.
func (s *Service) ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx, ports.ListOptions{
		SortByRecency:    input.SortByRecency,
		AssociatedUserID: input.ForUserID,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// AddNote appends a note to the order thread.
func (s *Service) AddNote(ctx context.Context, input ordertypes.AddNoteInput) (*domain.Order, error) {
	return s.mutate(ctx, input.OrderID, input.ExpectedVersion, input.Actor, func(order *domain.Order) error {
		_, err := order.AddNote(s.newID(), input.Content, input.Actor, input.Audience, s.now())
		return err
	})
}

// EditNote replaces the content of an existing note.
func (s *Service) EditNote(ctx context.Context, input ordertypes.EditNoteInput) (*domain.Order, error) {
	return s.mutate(ctx, input.OrderID, input.ExpectedVersion, input.Actor, func(order *domain.Order) error {
		_, err := order.EditNote(input.NoteID, input.Content, input.Actor, s.now())
		return err
	})
}

// RemoveAttachment deletes attachment metadata and then, best effort, the blob.
func (s *Service) RemoveAttachment(ctx context.Context, input ordertypes.RemoveAttachmentInput) (*domain.Order, error) {
	var removed domain.Attachment
	saved, err := s.mutate(ctx, input.OrderID, input.ExpectedVersion, input.Actor, func(order *domain.Order) error {
		var err error
		removed, err = order.RemoveAttachment(input.AttachmentID, input.Actor.Role, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.blobs != nil && removed.URL != "" {
		if err := s.blobs.Delete(ctx, removed.URL); err != nil && !errors.Is(err, ports.ErrBlobNotFound) {
			s.logger.WarnContext(ctx, "attachment blob left behind",
				slog.String("order_id", input.OrderID),
				slog.String("url", removed.URL),
				slog.Any("error", err))
		}
	}
	return saved, nil
}

// DownloadAttachment streams the content of an attachment.
func (s *Service) DownloadAttachment(ctx context.Context, input ordertypes.AttachmentIdentifier) (*ordertypes.AttachmentDownload, error) {
	order, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, mapError(err)
	}
	attachment, ok := order.Attachment(input.AttachmentID)
	if !ok {
		return nil, mapError(fmt.Errorf("%w: %s", domain.ErrAttachmentNotFound, input.AttachmentID))
	}
	if s.blobs == nil {
		return nil, mapError(errors.New("no blob store configured"))
	}
	body, err := s.blobs.Download(ctx, attachment.URL)
	if err != nil {
		return nil, mapError(err)
	}
	return &ordertypes.AttachmentDownload{Attachment: attachment, Body: body}, nil
}

// mutate runs fn against a fresh copy of the order inside the per-order
// critical section and persists the result with a version check.
func (s *Service) mutate(ctx context.Context, orderID string, expected *int64, actor domain.User, fn func(*domain.Order) error) (*domain.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, mapError(err)
	}
	unlock, err := s.locker.Lock(ctx, orderLockKey(orderID))
	if err != nil {
		return nil, mapError(err)
	}
	defer unlock()

	current, err := s.load(ctx, orderID, expected)
	if err != nil {
		return nil, err
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, mapError(err)
	}
	return s.persist(ctx, working)
}

func (s *Service) load(ctx context.Context, orderID string, expected *int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	if expected != nil && *expected != order.Version {
		return nil, mapError(fmt.Errorf("%w: have %d, expected %d", ErrStaleVersion, order.Version, *expected))
	}
	return order, nil
}

func (s *Service) persist(ctx context.Context, working *domain.Order) (*domain.Order, error) {
	events := working.Events()
	saved, err := s.repo.Update(ctx, working)
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, events)
	return saved, nil
}

func (s *Service) publish(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "publish order events", slog.Int("events", len(events)), slog.Any("error", err))
	}
}

var _ ports.Service = (*Service)(nil)
