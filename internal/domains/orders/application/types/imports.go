package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

// ErrIncompleteImport indicates that a feed payload cannot hydrate an Order yet.
var ErrIncompleteImport = errors.New("import candidate missing required fields")

// AttachmentLink is a file URL found inside imported free text.
type AttachmentLink struct {
	Name string
	URL  string
}

// ImportCandidate is the translated shape of one external order.
type ImportCandidate struct {
	Source          string
	SourceOrderID   string
	OrderName       string
	Customer        domain.Customer
	ShippingAddress domain.ShippingAddress
	LineItems       []domain.LineItem
	TextUnderDesign string
	FinancialStatus string
	TotalPrice      decimal.Decimal
	Currency        string
	Attachments     []AttachmentLink
	CreatedAt       time.Time
}

// MissingFields lists which mandatory fields are absent.
func (c ImportCandidate) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.SourceOrderID) == "" {
		missing = append(missing, "sourceOrderId")
	}
	if strings.TrimSpace(c.Customer.Name) == "" {
		missing = append(missing, "customerName")
	}
	if len(c.LineItems) == 0 {
		missing = append(missing, "lineItems")
	}
	return missing
}

// Validate checks whether the candidate can hydrate a domain aggregate.
func (c ImportCandidate) Validate() error {
	if missing := c.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteImport, strings.Join(missing, ", "))
	}
	return nil
}

// ToDomainOrder materializes an AtTeam order. newID generates attachment ids.
func (c ImportCandidate) ToDomainOrder(id string, now time.Time, newID func() string) (*domain.Order, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	order, err := domain.NewOrder(id, c.Customer, now)
	if err != nil {
		return nil, err
	}
	order.ShippingAddress = c.ShippingAddress
	order.LineItems = append([]domain.LineItem(nil), c.LineItems...)
	order.ProductDescription = domain.FormatProductDescription(order.LineItems)
	order.TextUnderDesign = c.TextUnderDesign
	order.External = &domain.ExternalReference{
		Source:          c.Source,
		OrderID:         c.SourceOrderID,
		OrderName:       c.OrderName,
		FinancialStatus: c.FinancialStatus,
		TotalPrice:      c.TotalPrice,
		Currency:        c.Currency,
	}
	for _, link := range c.Attachments {
		order.AddExternalAttachment(newID(), link.Name, link.URL, domain.RoleSales, now)
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// ImportOrdersInput drives one import run.
type ImportOrdersInput struct {
	Since time.Time
}

// ImportFailure explains why a candidate was not imported.
type ImportFailure struct {
	SourceOrderID string
	Reason        string
}

// ImportReport summarises an import batch.
type ImportReport struct {
	Imported []string
	Skipped  []string
	Failed   []ImportFailure
}

// Merge folds another report into r.
func (r *ImportReport) Merge(other *ImportReport) {
	if other == nil {
		return
	}
	r.Imported = append(r.Imported, other.Imported...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Failed = append(r.Failed, other.Failed...)
}
