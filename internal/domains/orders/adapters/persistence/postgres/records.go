package postgres

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

type lineItemRecord struct {
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	ShippedQuantity int    `json:"shippedQuantity"`
}

type attachmentRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploadedBy"`
	Timestamp   time.Time `json:"timestamp"`
	FromShopify bool      `json:"fromShopify"`
}

type noteRecord struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName"`
	AuthorRole string    `json:"authorRole"`
	TargetRole string    `json:"targetRole"`
	Timestamp  time.Time `json:"timestamp"`
	IsEdited   bool      `json:"isEdited"`
}

// storedNote is either a legacy plain-text note or a structured note.
// Legacy entries are read but always written back as structured notes.
type storedNote struct {
	Legacy string
	Note   *noteRecord
}

func (n storedNote) MarshalJSON() ([]byte, error) {
	if n.Note == nil {
		return json.Marshal(n.Legacy)
	}
	return json.Marshal(n.Note)
}

func (n *storedNote) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		n.Note = nil
		return json.Unmarshal(data, &n.Legacy)
	}
	var note noteRecord
	if err := json.Unmarshal(data, &note); err != nil {
		return err
	}
	n.Legacy = ""
	n.Note = &note
	return nil
}

type userRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type addressRecord struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func toRecord(order *domain.Order) OrderRecord {
	seq, _ := domain.ParseIDSequence(order.ID)
	rec := OrderRecord{
		ID:                 order.ID,
		Seq:                seq,
		Status:             string(order.Status),
		DigitizerStatus:    order.DigitizerStatus,
		VendorStatus:       order.VendorStatus,
		Priority:           string(order.Priority),
		ProductDescription: order.ProductDescription,
		TextUnderDesign:    order.TextUnderDesign,
		DigitizerID:        order.DigitizerID,
		VendorID:           order.VendorID,
		CustomerName:       order.Customer.Name,
		CustomerEmail:      order.Customer.Email,
		CustomerPhone:      order.Customer.Phone,
		ShippingAddress: addressRecord{
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			Province:   order.ShippingAddress.Province,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		},
		Version:   order.Version,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	rec.LineItems = make([]lineItemRecord, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		rec.LineItems = append(rec.LineItems, lineItemRecord(item))
	}
	rec.Attachments = make([]attachmentRecord, 0, len(order.Attachments))
	for _, a := range order.Attachments {
		rec.Attachments = append(rec.Attachments, attachmentRecord{
			ID:          a.ID,
			Name:        a.Name,
			URL:         a.URL,
			UploadedBy:  string(a.UploadedBy),
			Timestamp:   a.Timestamp,
			FromShopify: a.FromShopify,
		})
	}
	rec.Notes = make([]storedNote, 0, len(order.Notes))
	for _, n := range order.Notes {
		rec.Notes = append(rec.Notes, storedNote{Note: &noteRecord{
			ID:         n.ID,
			Content:    n.Content,
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
			AuthorRole: string(n.AuthorRole),
			TargetRole: string(n.TargetRole),
			Timestamp:  n.Timestamp,
			IsEdited:   n.IsEdited,
		}})
	}
	rec.AssociatedUsers = make([]userRecord, 0, len(order.AssociatedUsers))
	rec.AssociatedUserIDs = make(pq.StringArray, 0, len(order.AssociatedUsers))
	for _, u := range order.AssociatedUsers {
		rec.AssociatedUsers = append(rec.AssociatedUsers, userRecord{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
		rec.AssociatedUserIDs = append(rec.AssociatedUserIDs, u.ID)
	}
	if ext := order.External; ext != nil {
		rec.Source = ext.Source
		rec.SourceOrderName = ext.OrderName
		rec.FinancialStatus = ext.FinancialStatus
		rec.Currency = ext.Currency
		rec.TotalPrice = decimal.NullDecimal{Decimal: ext.TotalPrice, Valid: true}
		if ext.OrderID != "" {
			id := ext.OrderID
			rec.SourceOrderID = &id
		}
	}
	return rec
}

func (r OrderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:                 r.ID,
		Status:             domain.Status(r.Status),
		DigitizerStatus:    r.DigitizerStatus,
		VendorStatus:       r.VendorStatus,
		Priority:           domain.Priority(r.Priority),
		ProductDescription: r.ProductDescription,
		TextUnderDesign:    r.TextUnderDesign,
		DigitizerID:        r.DigitizerID,
		VendorID:           r.VendorID,
		Customer: domain.Customer{
			Name:  r.CustomerName,
			Email: r.CustomerEmail,
			Phone: r.CustomerPhone,
		},
		ShippingAddress: domain.ShippingAddress{
			Line1:      r.ShippingAddress.Line1,
			Line2:      r.ShippingAddress.Line2,
			City:       r.ShippingAddress.City,
			Province:   r.ShippingAddress.Province,
			PostalCode: r.ShippingAddress.PostalCode,
			Country:    r.ShippingAddress.Country,
		},
		Version:   r.Version,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	for _, item := range r.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem(item))
	}
	for _, a := range r.Attachments {
		order.Attachments = append(order.Attachments, domain.Attachment{
			ID:          a.ID,
			Name:        a.Name,
			URL:         a.URL,
			UploadedBy:  domain.Role(a.UploadedBy),
			Timestamp:   a.Timestamp.UTC(),
			FromShopify: a.FromShopify,
		})
	}
	for i, n := range r.Notes {
		order.Notes = append(order.Notes, n.toDomain(r.ID, i, r.CreatedAt))
	}
	for _, u := range r.AssociatedUsers {
		order.AssociatedUsers = append(order.AssociatedUsers, domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Role: domain.Role(u.Role)})
	}
	if r.Source != "" || r.SourceOrderID != nil {
		ext := &domain.ExternalReference{
			Source:          r.Source,
			OrderName:       r.SourceOrderName,
			FinancialStatus: r.FinancialStatus,
			Currency:        r.Currency,
		}
		if r.SourceOrderID != nil {
			ext.OrderID = *r.SourceOrderID
		}
		if r.TotalPrice.Valid {
			ext.TotalPrice = r.TotalPrice.Decimal
		}
		order.External = ext
	}
	return order
}

// toDomain migrates legacy notes to Team-authored Team notes with a stable id.
func (n storedNote) toDomain(orderID string, idx int, orderCreated time.Time) domain.Note {
	if n.Note == nil {
		return domain.Note{
			ID:         fmt.Sprintf("%s-legacy-%d", orderID, idx),
			Content:    n.Legacy,
			AuthorRole: domain.RoleTeam,
			TargetRole: domain.RoleTeam,
			Timestamp:  orderCreated.UTC(),
		}
	}
	return domain.Note{
		ID:         n.Note.ID,
		Content:    n.Note.Content,
		AuthorID:   n.Note.AuthorID,
		AuthorName: n.Note.AuthorName,
		AuthorRole: domain.Role(n.Note.AuthorRole),
		TargetRole: domain.Role(n.Note.TargetRole),
		Timestamp:  n.Note.Timestamp.UTC(),
		IsEdited:   n.Note.IsEdited,
	}
}
