package domain

import "errors"

// Invalid input.
var (
	ErrInvalidOrderID    = errors.New("order id must look like ORD-NNN")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidPriority   = errors.New("order priority is invalid")
	ErrInvalidRole       = errors.New("role is invalid")
	ErrActorRequired     = errors.New("acting user identity is required")
	ErrEmptyNoteContent  = errors.New("note content must not be empty")
	ErrInvalidAudience   = errors.New("note audience must be Team, Digitizer or Vendor")
	ErrEmptyShipment     = errors.New("shipment must contain at least one entry")
	ErrNegativeShipment  = errors.New("shipped quantity must not be negative")
	ErrOvershipment      = errors.New("shipped quantity exceeds ordered quantity")
	ErrUnknownLineItem   = errors.New("no line item matches shipment entry")
	ErrEmptyLineItemName = errors.New("shipment entry name is required")
)

// Missing entities.
var (
	ErrNoteNotFound       = errors.New("note not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// Permission failures.
var (
	ErrNoteEditForbidden         = errors.New("only the note author, or team staff editing a team note, may edit this note")
	ErrExternalAttachment        = errors.New("cannot delete attachments sourced externally")
	ErrAttachmentDeleteForbidden = errors.New("only team staff or the uploader role may delete this attachment")
	ErrPriorityForbidden         = errors.New("role may not change order priority")
)

// Workflow conflicts.
var (
	ErrAlreadyInState    = errors.New("order already in this state")
	ErrIllegalTransition = errors.New("status transition not allowed")
)
