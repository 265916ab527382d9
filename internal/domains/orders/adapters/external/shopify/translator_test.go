package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	feedclient "github.com/Apurer/orderflow/internal/clients/http/feed"
	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

func sampleOrder() feedclient.Order {
	return feedclient.Order{
		ID:              json.Number("5001"),
		Name:            "#1001",
		Email:           "ada@example.com",
		Note:            "Logo at https://cdn.example.com/files/logo%20final.png, proof: https://cdn.example.com/files/proof.pdf.",
		FinancialStatus: "paid",
		TotalPrice:      "42.50",
		Currency:        "eur",
		CreatedAt:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
		Customer:        &feedclient.Customer{FirstName: "Ada", LastName: "Lovelace", Phone: "+100"},
		ShippingAddress: &feedclient.Address{Address1: "1 Main St", City: "London", Zip: "N1", Country: "UK"},
		LineItems: []feedclient.LineItem{
			{Title: "Mug", Quantity: 2, Properties: []feedclient.Property{
				{Name: "Text Under Design", Value: "Happy Birthday"},
				{Name: "Artwork", Value: "https://cdn.example.com/files/logo%20final.png"},
			}},
			{Title: " Hat ", Quantity: 1},
			{Title: "", Quantity: 3},
		},
	}
}

func TestToCandidate_MapsFields(t *testing.T) {
	candidate := ToCandidate(sampleOrder())

	require.Equal(t, SourceName, candidate.Source)
	require.Equal(t, "5001", candidate.SourceOrderID)
	require.Equal(t, "#1001", candidate.OrderName)
	require.Equal(t, domain.Customer{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+100"}, candidate.Customer)
	require.Equal(t, "London", candidate.ShippingAddress.City)
	require.Equal(t, "N1", candidate.ShippingAddress.PostalCode)
	require.True(t, decimal.RequireFromString("42.5").Equal(candidate.TotalPrice))
	require.Equal(t, "EUR", candidate.Currency)
	require.Equal(t, time.UTC, candidate.CreatedAt.Location())
	require.Equal(t, "Happy Birthday", candidate.TextUnderDesign)
	require.Equal(t, []domain.LineItem{{Name: "Mug", Quantity: 2}, {Name: "Hat", Quantity: 1}}, candidate.LineItems)
	require.NoError(t, candidate.Validate())
}

func TestToCandidate_ExtractsDistinctLinks(t *testing.T) {
	candidate := ToCandidate(sampleOrder())

	require.Equal(t, []ordertypes.AttachmentLink{
		{Name: "logo final.png", URL: "https://cdn.example.com/files/logo%20final.png"},
		{Name: "proof.pdf", URL: "https://cdn.example.com/files/proof.pdf"},
	}, candidate.Attachments)
}

func TestToCandidate_FallsBackToShippingName(t *testing.T) {
	order := feedclient.Order{
		ID:              json.Number("7"),
		TotalPrice:      "not-a-number",
		ShippingAddress: &feedclient.Address{Name: "Grace Hopper", Phone: "+200"},
	}
	candidate := ToCandidate(order)

	require.Equal(t, "Grace Hopper", candidate.Customer.Name)
	require.Equal(t, "+200", candidate.Customer.Phone)
	require.True(t, candidate.TotalPrice.IsZero())
	require.ErrorIs(t, candidate.Validate(), ordertypes.ErrIncompleteImport)
}

type stubLister struct {
	params feedclient.ListOrdersParams
	orders []feedclient.Order
	err    error
}

func (s *stubLister) ListOrders(_ context.Context, params feedclient.ListOrdersParams) ([]feedclient.Order, error) {
	s.params = params
	return s.orders, s.err
}

func TestSource_FetchCandidates(t *testing.T) {
	lister := &stubLister{orders: []feedclient.Order{sampleOrder()}}
	since := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	candidates, err := NewSource(lister).FetchCandidates(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.NotNil(t, lister.params.CreatedAtMin)
	require.True(t, since.Equal(*lister.params.CreatedAtMin))

	lister.err = errors.New("feed down")
	_, err = NewSource(lister).FetchCandidates(context.Background(), time.Time{})
	require.EqualError(t, err, "feed down")
	require.Nil(t, lister.params.CreatedAtMin)
}
