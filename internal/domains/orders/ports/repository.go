package ports

import (
	"context"
	"errors"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrVersionConflict is returned when the stored version no longer matches the one that was read.
	ErrVersionConflict = errors.New("order was modified concurrently")

	// ErrDuplicateSource is returned when an order with the same external reference already exists.
	ErrDuplicateSource = errors.New("order already imported from this source order")
)

// ListOptions filters and orders List results.
type ListOptions struct {
	SortByRecency bool
	// AssociatedUserID restricts results to orders the user touched or is assigned to.
	AssociatedUserID string
}

// Repository persists order aggregates.
type Repository interface {
	// NextID atomically reserves the next sequential order id.
	NextID(ctx context.Context) (string, error)
	Insert(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// Update stores order if its Version still matches the stored one and bumps it.
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetBySourceOrderID(ctx context.Context, sourceOrderID string) (*domain.Order, error)
	List(ctx context.Context, opts ListOptions) ([]*domain.Order, error)
}
