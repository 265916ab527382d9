package ports

import (
	"context"
	"time"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
)

// OrderSource fetches raw orders from the external feed and translates them.
type OrderSource interface {
	FetchCandidates(ctx context.Context, since time.Time) ([]ordertypes.ImportCandidate, error)
}
