package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

func TestFromDomainOrder(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	order, err := domain.NewOrder("ORD-007", domain.Customer{Name: "Ada", Phone: "+100"}, now)
	require.NoError(t, err)
	order.ProductDescription = "2 x Mug"
	order.EnsureLineItems()
	order.AddExternalAttachment("a-1", "logo.png", "https://cdn/logo.png", domain.RoleSales, now)
	_, err = order.AddNote("n-1", "check colours", domain.User{ID: "t-1", Name: "Tia", Role: domain.RoleTeam}, domain.RoleDigitizer, now)
	require.NoError(t, err)
	order.External = &domain.ExternalReference{Source: "shopify", OrderID: "5001", TotalPrice: decimal.RequireFromString("42.5")}
	order.Version = 3

	out := FromDomainOrder(order)
	assert.Equal(t, "ORD-007", out.ID)
	assert.Equal(t, "AtTeam", out.Status)
	assert.Equal(t, "Medium", out.Priority)
	assert.Equal(t, []LineItem{{Name: "Mug", Quantity: 2}}, out.LineItems)
	require.Len(t, out.Attachments, 1)
	assert.True(t, out.Attachments[0].FromShopify)
	require.Len(t, out.Notes, 1)
	assert.Equal(t, "Digitizer", out.Notes[0].TargetRole)
	assert.Equal(t, []Actor{{ID: "t-1", Name: "Tia", Role: "Team"}}, out.AssociatedUsers)
	require.NotNil(t, out.External)
	assert.Equal(t, "42.50", out.External.TotalPrice)
	assert.Equal(t, int64(3), out.Version)
	assert.Equal(t, "+100", out.Customer.Phone)
}

func TestFromDomainOrder_EmptyCollectionsAreNotNil(t *testing.T) {
	order, err := domain.NewOrder("ORD-001", domain.Customer{}, time.Now())
	require.NoError(t, err)
	out := FromDomainOrder(order)
	assert.NotNil(t, out.LineItems)
	assert.NotNil(t, out.Notes)
	assert.NotNil(t, out.Attachments)
	assert.Nil(t, out.External)
}

func TestToShipmentAndLineItems(t *testing.T) {
	assert.Nil(t, ToShipment(nil))
	empty := ToShipment([]ShipmentLine{})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.Equal(t, []domain.ShipmentEntry{{Name: "Mug", Quantity: 1}}, ToShipment([]ShipmentLine{{Name: "Mug", Quantity: 1}}))
	assert.Equal(t, []domain.LineItem{{Name: "Hat", Quantity: 2}}, ToLineItems([]LineItem{{Name: " Hat ", Quantity: 2}}))
}

func TestFromImportReport(t *testing.T) {
	assert.Equal(t, ImportReport{Imported: []string{}, Skipped: []string{}, Failed: []ImportFailure{}}, FromImportReport(nil))
	out := FromImportReport(&ordertypes.ImportReport{
		Imported: []string{"ORD-001"},
		Failed:   []ordertypes.ImportFailure{{SourceOrderID: "9", Reason: "missing"}},
	})
	assert.Equal(t, []string{"ORD-001"}, out.Imported)
	assert.Equal(t, []ImportFailure{{SourceOrderID: "9", Reason: "missing"}}, out.Failed)
}
