package application

import (
	"context"
	"errors"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// ImportOrders inserts translated feed orders at AtTeam. Candidates whose
// source order id already exists are skipped; invalid ones are reported as failed.
func (s *Service) ImportOrders(ctx context.Context, candidates []ordertypes.ImportCandidate) (*ordertypes.ImportReport, error) {
	report := &ordertypes.ImportReport{}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		id, err := s.importOne(ctx, candidate)
		switch {
		case err == nil:
			report.Imported = append(report.Imported, id)
		case errors.Is(err, ports.ErrDuplicateSource):
			report.Skipped = append(report.Skipped, candidate.SourceOrderID)
		case errors.Is(err, ErrInternal):
			return report, err
		default:
			report.Failed = append(report.Failed, ordertypes.ImportFailure{
				SourceOrderID: candidate.SourceOrderID,
				Reason:        err.Error(),
			})
		}
	}
	return report, nil
}

func (s *Service) importOne(ctx context.Context, candidate ordertypes.ImportCandidate) (string, error) {
	if err := candidate.Validate(); err != nil {
		return "", mapError(err)
	}
	if _, err := s.repo.GetBySourceOrderID(ctx, candidate.SourceOrderID); err == nil {
		return "", ports.ErrDuplicateSource
	} else if !errors.Is(err, ports.ErrNotFound) {
		return "", mapError(err)
	}
	id, err := s.repo.NextID(ctx)
	if err != nil {
		return "", mapError(err)
	}
	now := s.now()
	if !candidate.CreatedAt.IsZero() {
		now = candidate.CreatedAt.UTC()
	}
	order, err := candidate.ToDomainOrder(id, now, s.newID)
	if err != nil {
		return "", mapError(err)
	}
	events := order.Events()
	saved, err := s.repo.Insert(ctx, order)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateSource) {
			return "", err
		}
		return "", mapError(err)
	}
	s.publish(ctx, events)
	return saved.ID, nil
}
