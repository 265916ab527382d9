package types

import (
	"io"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

// FileUpload is an attachment submitted with a request.
type FileUpload struct {
	Name string
	Data []byte
}

// CreateOrderInput captures a direct order creation.
type CreateOrderInput struct {
	Actor              domain.User
	Customer           domain.Customer
	ShippingAddress    domain.ShippingAddress
	ProductDescription string
	LineItems          []domain.LineItem
	TextUnderDesign    string
	Priority           domain.Priority
	Note               string
	// IdempotencyKey replays the first result for retried creates when set.
	IdempotencyKey string
}

// ListOrdersInput selects orders for a listing.
type ListOrdersInput struct {
	SortByRecency bool
	ForUserID     string
}

// TransitionInput requests a status change on an order.
type TransitionInput struct {
	OrderID string
	// ExpectedVersion, when set, must equal the stored version.
	ExpectedVersion *int64
	Actor           domain.User

	Target          domain.Status
	Note            string
	NoteAudience    domain.Role
	Rejection       bool
	DigitizerID     *string
	VendorID        *string
	Priority        *domain.Priority
	DigitizerStatus *string
	VendorStatus    *string
	Shipment        []domain.ShipmentEntry
	Files           []FileUpload
}

// AddNoteInput appends a note to an order thread.
type AddNoteInput struct {
	OrderID         string
	ExpectedVersion *int64
	Actor           domain.User
	Content         string
	Audience        domain.Role
}

// EditNoteInput replaces the content of a note.
type EditNoteInput struct {
	OrderID         string
	ExpectedVersion *int64
	Actor           domain.User
	NoteID          string
	Content         string
}

// AttachmentIdentifier points at one attachment of an order.
type AttachmentIdentifier struct {
	OrderID      string
	AttachmentID string
}

// RemoveAttachmentInput deletes an attachment.
type RemoveAttachmentInput struct {
	AttachmentIdentifier
	ExpectedVersion *int64
	Actor           domain.User
}

// AttachmentDownload streams attachment content. Callers must close Body.
type AttachmentDownload struct {
	Attachment domain.Attachment
	Body       io.ReadCloser
}
