package application

import (
	"context"
	"errors"
	"fmt"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

// Error taxonomy returned by the service. Every error wraps exactly one of these
// together with the specific precondition that failed.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpload          = errors.New("upload error")
	ErrInternal        = errors.New("internal error")
)

// ErrStaleVersion is returned when the caller's expected version is outdated.
var ErrStaleVersion = errors.New("order version does not match the expected version")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrForbidden, ErrInvalidArgument, ErrUpload, ErrInternal} {
		if errors.Is(err, kind) {
			return err
		}
	}
	switch {
	case errors.Is(err, ports.ErrNotFound),
		errors.Is(err, ports.ErrBlobNotFound),
		errors.Is(err, domain.ErrNoteNotFound),
		errors.Is(err, domain.ErrAttachmentNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, domain.ErrAlreadyInState),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, ports.ErrVersionConflict),
		errors.Is(err, ports.ErrLockNotObtained),
		errors.Is(err, ports.ErrDuplicateSource),
		errors.Is(err, ports.ErrIdempotencyConflict),
		errors.Is(err, ErrStaleVersion):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, domain.ErrNoteEditForbidden),
		errors.Is(err, domain.ErrExternalAttachment),
		errors.Is(err, domain.ErrAttachmentDeleteForbidden),
		errors.Is(err, domain.ErrPriorityForbidden):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, domain.ErrInvalidOrderID),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrActorRequired),
		errors.Is(err, domain.ErrEmptyNoteContent),
		errors.Is(err, domain.ErrInvalidAudience),
		errors.Is(err, domain.ErrEmptyShipment),
		errors.Is(err, domain.ErrNegativeShipment),
		errors.Is(err, domain.ErrOvershipment),
		errors.Is(err, domain.ErrUnknownLineItem),
		errors.Is(err, domain.ErrEmptyLineItemName),
		errors.Is(err, ordertypes.ErrIncompleteImport):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, ports.ErrUpload):
		return fmt.Errorf("%w: %w", ErrUpload, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
