package mapper

import (
	"strings"
	"time"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

// LineItem is the HTTP representation of an ordered product.
type LineItem struct {
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	ShippedQuantity int    `json:"shippedQuantity"`
}

// Attachment is the HTTP representation of a stored file.
type Attachment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploadedBy"`
	Timestamp   time.Time `json:"timestamp"`
	FromShopify bool      `json:"fromShopify"`
}

// Note is the HTTP representation of a thread entry.
type Note struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName"`
	AuthorRole string    `json:"authorRole"`
	TargetRole string    `json:"targetRole"`
	Timestamp  time.Time `json:"timestamp"`
	IsEdited   bool      `json:"isEdited"`
}

// Actor is a user recorded on an order.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Customer carries contact details.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ShippingAddress is pass-through delivery data.
type ShippingAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// ExternalReference links an order to its feed record.
type ExternalReference struct {
	Source          string `json:"source"`
	OrderID         string `json:"orderId"`
	OrderName       string `json:"orderName,omitempty"`
	FinancialStatus string `json:"financialStatus,omitempty"`
	TotalPrice      string `json:"totalPrice,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

// Order is the HTTP representation of the order aggregate.
type Order struct {
	ID                 string             `json:"id"`
	Status             string             `json:"status"`
	DigitizerStatus    string             `json:"digitizerStatus,omitempty"`
	VendorStatus       string             `json:"vendorStatus,omitempty"`
	Priority           string             `json:"priority"`
	ProductDescription string             `json:"productDescription"`
	TextUnderDesign    string             `json:"textUnderDesign,omitempty"`
	LineItems          []LineItem         `json:"lineItems"`
	Attachments        []Attachment       `json:"attachments"`
	Notes              []Note             `json:"notes"`
	AssociatedUsers    []Actor            `json:"associatedUsers"`
	DigitizerID        string             `json:"digitizerId,omitempty"`
	VendorID           string             `json:"vendorId,omitempty"`
	Customer           Customer           `json:"customer"`
	ShippingAddress    ShippingAddress    `json:"shippingAddress"`
	External           *ExternalReference `json:"external,omitempty"`
	Version            int64              `json:"version"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// ImportFailure explains a rejected feed order.
type ImportFailure struct {
	SourceOrderID string `json:"sourceOrderId"`
	Reason        string `json:"reason"`
}

// ImportReport summarises an import run.
type ImportReport struct {
	Imported []string        `json:"imported"`
	Skipped  []string        `json:"skipped"`
	Failed   []ImportFailure `json:"failed"`
}

// FromDomainOrder converts the aggregate into its transport shape.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	out := Order{
		ID:                 order.ID,
		Status:             string(order.Status),
		DigitizerStatus:    order.DigitizerStatus,
		VendorStatus:       order.VendorStatus,
		Priority:           string(order.Priority),
		ProductDescription: order.ProductDescription,
		TextUnderDesign:    order.TextUnderDesign,
		LineItems:          make([]LineItem, 0, len(order.LineItems)),
		Attachments:        make([]Attachment, 0, len(order.Attachments)),
		Notes:              make([]Note, 0, len(order.Notes)),
		AssociatedUsers:    make([]Actor, 0, len(order.AssociatedUsers)),
		DigitizerID:        order.DigitizerID,
		VendorID:           order.VendorID,
		Customer:           Customer(order.Customer),
		ShippingAddress:    ShippingAddress(order.ShippingAddress),
		Version:            order.Version,
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
	for _, li := range order.LineItems {
		out.LineItems = append(out.LineItems, LineItem(li))
	}
	for _, a := range order.Attachments {
		out.Attachments = append(out.Attachments, FromDomainAttachment(a))
	}
	for _, n := range order.Notes {
		out.Notes = append(out.Notes, Note{
			ID:         n.ID,
			Content:    n.Content,
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
			AuthorRole: string(n.AuthorRole),
			TargetRole: string(n.TargetRole),
			Timestamp:  n.Timestamp,
			IsEdited:   n.IsEdited,
		})
	}
	for _, u := range order.AssociatedUsers {
		out.AssociatedUsers = append(out.AssociatedUsers, Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
	}
	if ext := order.External; ext != nil {
		out.External = &ExternalReference{
			Source:          ext.Source,
			OrderID:         ext.OrderID,
			OrderName:       ext.OrderName,
			FinancialStatus: ext.FinancialStatus,
			Currency:        ext.Currency,
		}
		if !ext.TotalPrice.IsZero() {
			out.External.TotalPrice = ext.TotalPrice.StringFixed(2)
		}
	}
	return out
}

// FromDomainOrders converts a listing.
func FromDomainOrders(orders []*domain.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, FromDomainOrder(order))
	}
	return result
}

// FromDomainAttachment converts one attachment.
func FromDomainAttachment(a domain.Attachment) Attachment {
	return Attachment{
		ID:          a.ID,
		Name:        a.Name,
		URL:         a.URL,
		UploadedBy:  string(a.UploadedBy),
		Timestamp:   a.Timestamp,
		FromShopify: a.FromShopify,
	}
}

// ToLineItems maps requested line items, trimming names.
func ToLineItems(items []LineItem) []domain.LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.LineItem, 0, len(items))
	for _, li := range items {
		out = append(out, domain.LineItem{Name: strings.TrimSpace(li.Name), Quantity: li.Quantity})
	}
	return out
}

// ShipmentLine reports units shipped for one line item.
type ShipmentLine struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

// ToShipment maps shipment lines into ledger entries. A nil input means no
// shipment was sent; an empty one is passed through so the ledger rejects it.
func ToShipment(lines []ShipmentLine) []domain.ShipmentEntry {
	if lines == nil {
		return nil
	}
	out := make([]domain.ShipmentEntry, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.ShipmentEntry(line))
	}
	return out
}

// FromImportReport converts an import summary.
func FromImportReport(report *ordertypes.ImportReport) ImportReport {
	out := ImportReport{Imported: []string{}, Skipped: []string{}, Failed: []ImportFailure{}}
	if report == nil {
		return out
	}
	out.Imported = append(out.Imported, report.Imported...)
	out.Skipped = append(out.Skipped, report.Skipped...)
	for _, f := range report.Failed {
		out.Failed = append(out.Failed, ImportFailure(f))
	}
	return out
}
