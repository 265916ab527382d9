package shopify

import (
	"context"
	"errors"
	"time"

	feedclient "github.com/Apurer/orderflow/internal/clients/http/feed"
	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// Lister is the subset of the feed client used by Source.
type Lister interface {
	ListOrders(ctx context.Context, params feedclient.ListOrdersParams) ([]feedclient.Order, error)
}

// Source implements the outbound order source port over the storefront feed.
type Source struct {
	client Lister
}

// NewSource wires a feed client into the import source adapter.
func NewSource(client Lister) *Source {
	return &Source{client: client}
}

// FetchCandidates lists orders created since the given time and translates them.
func (s *Source) FetchCandidates(ctx context.Context, since time.Time) ([]ordertypes.ImportCandidate, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("shopify source not configured")
	}
	params := feedclient.ListOrdersParams{}
	if !since.IsZero() {
		params.CreatedAtMin = &since
	}
	orders, err := s.client.ListOrders(ctx, params)
	if err != nil {
		return nil, err
	}
	return ToCandidates(orders), nil
}

var _ ports.OrderSource = (*Source)(nil)
