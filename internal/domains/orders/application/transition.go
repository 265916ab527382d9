package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// Transition validates and applies a status change with its side effects.
// Nothing is persisted unless every step succeeds.
func (s *Service) Transition(ctx context.Context, input ordertypes.TransitionInput) (*domain.Order, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, mapError(err)
	}
	unlock, err := s.locker.Lock(ctx, orderLockKey(input.OrderID))
	if err != nil {
		return nil, mapError(err)
	}
	defer unlock()

	current, err := s.load(ctx, input.OrderID, input.ExpectedVersion)
	if err != nil {
		return nil, err
	}

	req := domain.TransitionRequest{
		Target:          input.Target,
		Note:            input.Note,
		NoteAudience:    input.NoteAudience,
		Rejection:       input.Rejection,
		DigitizerID:     input.DigitizerID,
		VendorID:        input.VendorID,
		Priority:        input.Priority,
		DigitizerStatus: input.DigitizerStatus,
		VendorStatus:    input.VendorStatus,
		Shipment:        input.Shipment,
		AttachmentCount: len(input.Files),
		Actor:           input.Actor,
	}
	plan, err := domain.PlanTransition(current, req)
	if err != nil {
		return nil, mapError(err)
	}
	digitizerID, vendorID := current.DigitizerID, current.VendorID
	if input.DigitizerID != nil {
		digitizerID = *input.DigitizerID
	}
	if input.VendorID != nil {
		vendorID = *input.VendorID
	}
	plan.SetDisplayNames(s.displayName(ctx, digitizerID), s.displayName(ctx, vendorID))

	attachments, err := s.storeFiles(ctx, input.Files, input.Actor.Role)
	if err != nil {
		return nil, mapError(err)
	}

	working := current.Clone()
	if err := plan.Apply(working, attachments, s.newID(), s.now()); err != nil {
		s.discardBlobs(ctx, attachments)
		return nil, mapError(err)
	}
	saved, err := s.persist(ctx, working)
	if err != nil {
		s.discardBlobs(ctx, attachments)
		return nil, err
	}
	return saved, nil
}

func (s *Service) displayName(ctx context.Context, userID string) string {
	if s.directory == nil || userID == "" {
		return ""
	}
	name, err := s.directory.DisplayName(ctx, userID)
	if err != nil {
		s.logger.DebugContext(ctx, "display name lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		return ""
	}
	return name
}

// storeFiles uploads every file or none: already stored blobs are removed when
// a later upload fails.
func (s *Service) storeFiles(ctx context.Context, files []ordertypes.FileUpload, uploadedBy domain.Role) ([]domain.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("%w: no blob store configured", ports.ErrUpload)
	}
	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	attachments := make([]domain.Attachment, 0, len(files))
	for _, file := range files {
		stored, err := s.blobs.Upload(uploadCtx, file.Data, file.Name)
		if err != nil {
			s.discardBlobs(ctx, attachments)
			if errors.Is(err, ports.ErrUpload) {
				return nil, fmt.Errorf("%s: %w", file.Name, err)
			}
			return nil, fmt.Errorf("%w: %s: %w", ports.ErrUpload, file.Name, err)
		}
		attachments = append(attachments, domain.Attachment{
			ID:         s.newID(),
			Name:       file.Name,
			URL:        stored.URL,
			UploadedBy: uploadedBy,
		})
	}
	return attachments, nil
}

func (s *Service) discardBlobs(ctx context.Context, attachments []domain.Attachment) {
	if s.blobs == nil {
		return
	}
	for _, a := range attachments {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), a.URL); err != nil {
			s.logger.WarnContext(ctx, "orphaned attachment blob", slog.String("url", a.URL), slog.Any("error", err))
		}
	}
}
