package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	orderports "github.com/Apurer/orderflow/internal/domains/orders/ports"
)

const (
	// FetchCandidatesActivityName pulls and translates feed orders created after a cutoff.
	FetchCandidatesActivityName = "orders.activities.FetchCandidates"
	// ImportCandidatesActivityName inserts a batch of translated candidates.
	ImportCandidatesActivityName = "orders.activities.ImportCandidates"
)

// FetchCandidatesInput bounds a feed fetch.
type FetchCandidatesInput = ordertypes.ImportOrdersInput

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service orderports.Service
	source  orderports.OrderSource
}

// NewActivities wires the orders collaborators into the Temporal activities bundle.
func NewActivities(service orderports.Service, source orderports.OrderSource) *Activities {
	return &Activities{service: service, source: source}
}

// FetchCandidates reads the external feed. A missing source yields an empty batch.
func (a *Activities) FetchCandidates(ctx context.Context, input FetchCandidatesInput) ([]ordertypes.ImportCandidate, error) {
	logger := activity.GetLogger(ctx)
	if a == nil {
		return nil, errors.New("order import activities not initialized")
	}
	if a.source == nil {
		logger.Info("order source not configured; skipping fetch")
		return nil, nil
	}
	candidates, err := a.source.FetchCandidates(ctx, input.Since)
	if err != nil {
		logger.Error("FetchCandidates failed", "error", err)
		return nil, err
	}
	logger.Info("FetchCandidates completed", "count", len(candidates))
	return candidates, nil
}

// ImportCandidates hands a batch to the application service. Duplicates are
// skipped by source order id, so retrying a batch is safe.
func (a *Activities) ImportCandidates(ctx context.Context, candidates []ordertypes.ImportCandidate) (*ordertypes.ImportReport, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order import activity not initialized")
		return nil, errors.New("order import activity not initialized")
	}
	logger.Info("ImportCandidates started", "count", len(candidates))
	report, err := a.service.ImportOrders(ctx, candidates)
	if err != nil {
		logger.Error("ImportCandidates failed", "error", err)
		return nil, err
	}
	logger.Info("ImportCandidates completed",
		"imported", len(report.Imported),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}
