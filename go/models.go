package orderflowserver

import (
	"time"

	orderhttpmapper "github.com/Apurer/orderflow/internal/domains/orders/adapters/http/mapper"
)

// CreateOrderRequest registers an order outside the feed import.
type CreateOrderRequest struct {
	Customer           orderhttpmapper.Customer        `json:"customer"`
	ShippingAddress    orderhttpmapper.ShippingAddress `json:"shippingAddress"`
	ProductDescription string                          `json:"productDescription"`
	LineItems          []LineItemRequest               `json:"lineItems" binding:"dive"`
	TextUnderDesign    string                          `json:"textUnderDesign"`
	Priority           string                          `json:"priority" binding:"priority"`
	Note               string                          `json:"note"`
}

// LineItemRequest names one product and how many were ordered.
type LineItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=1"`
}

// TransitionRequest moves an order to a new status. Multipart requests carry
// it as the "payload" field alongside "files".
type TransitionRequest struct {
	Status          string                         `json:"status" binding:"required,orderstatus"`
	Note            string                         `json:"note"`
	NoteAudience    string                         `json:"noteAudience" binding:"audience"`
	Rejection       bool                           `json:"rejection"`
	DigitizerId     *string                        `json:"digitizerId"`
	VendorId        *string                        `json:"vendorId"`
	Priority        *string                        `json:"priority" binding:"omitempty,priority"`
	DigitizerStatus *string                        `json:"digitizerStatus"`
	VendorStatus    *string                        `json:"vendorStatus"`
	Shipment        []orderhttpmapper.ShipmentLine `json:"shipment" binding:"dive"`
}

// AddNoteRequest appends to a thread. Audience defaults to Team.
type AddNoteRequest struct {
	Content  string `json:"content" binding:"required"`
	Audience string `json:"audience" binding:"audience"`
}

// EditNoteRequest replaces a note's content.
type EditNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// ImportOrdersRequest bounds a feed import to orders created after Since.
type ImportOrdersRequest struct {
	Since *time.Time `json:"since"`
}

// RegisterUserRequest adds a directory entry.
type RegisterUserRequest struct {
	Id    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,role"`
}
