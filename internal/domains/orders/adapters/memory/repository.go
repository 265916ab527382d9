package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	bySource map[string]string
	lastSeq  int64
	clock    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		orders:   map[string]*domain.Order{},
		bySource: map[string]string{},
		clock:    time.Now,
	}
}

// WithClock overrides the time source used for UpdatedAt on writes.
func (r *Repository) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = clock
}

func (r *Repository) NextID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeq++
	return domain.FormatID(r.lastSeq), nil
}

func (r *Repository) Insert(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	clone := order.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[clone.ID]; exists {
		return nil, errors.New("order id already used: " + clone.ID)
	}
	if source := clone.SourceOrderID(); source != "" {
		if _, exists := r.bySource[source]; exists {
			return nil, ports.ErrDuplicateSource
		}
		r.bySource[source] = clone.ID
	}
	if seq, ok := domain.ParseIDSequence(clone.ID); ok && seq > r.lastSeq {
		r.lastSeq = seq
	}
	clone.Version = 1
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.clock().UTC()
	}
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = clone.CreatedAt
	}
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	clone := order.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[clone.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if stored.Version != clone.Version {
		return nil, ports.ErrVersionConflict
	}
	clone.Version++
	clone.CreatedAt = stored.CreatedAt
	r.orders[clone.ID] = clone
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *Repository) GetBySourceOrderID(_ context.Context, sourceOrderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySource[sourceOrderID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.orders[id].Clone(), nil
}

func (r *Repository) List(_ context.Context, opts ports.ListOptions) ([]*domain.Order, error) {
	r.mu.RLock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if opts.AssociatedUserID != "" && !order.IsAssociated(opts.AssociatedUserID) {
			continue
		}
		list = append(list, order.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		si, _ := domain.ParseIDSequence(list[i].ID)
		sj, _ := domain.ParseIDSequence(list[j].ID)
		if opts.SortByRecency {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return si > sj
		}
		return si < sj
	})
	return list, nil
}
