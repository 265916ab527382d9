package ports

import (
	"context"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
)

// ImportOrchestrator runs the external order import, durably when available.
type ImportOrchestrator interface {
	ImportOrders(ctx context.Context, input ordertypes.ImportOrdersInput) (*ordertypes.ImportReport, error)
}
