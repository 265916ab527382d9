package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the workflow stage an order is in.
type Status string

const (
	StatusAtTeam           Status = "AtTeam"
	StatusAtDigitizer      Status = "AtDigitizer"
	StatusTeamReview       Status = "TeamReview"
	StatusAtVendor         Status = "AtVendor"
	StatusPartiallyShipped Status = "PartiallyShipped"
	StatusOutForDelivery   Status = "OutForDelivery"
)

// Valid reports whether the status is part of the workflow.
func (s Status) Valid() bool {
	switch s {
	case StatusAtTeam, StatusAtDigitizer, StatusTeamReview, StatusAtVendor, StatusPartiallyShipped, StatusOutForDelivery:
		return true
	default:
		return false
	}
}

// Priority ranks orders for the team.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether the priority is known.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// Role identifies what an actor does in the workflow.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleSales     Role = "Sales"
	RoleTeam      Role = "Team"
	RoleDigitizer Role = "Digitizer"
	RoleVendor    Role = "Vendor"
	RoleDelivery  Role = "Delivery"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSales, RoleTeam, RoleDigitizer, RoleVendor, RoleDelivery:
		return true
	default:
		return false
	}
}

// Privileged roles may edit team notes, delete any attachment and change priority.
func (r Role) Privileged() bool {
	return r == RoleTeam || r == RoleAdmin
}

// Sub-status values used for the digitizer and vendor stages.
const (
	SubStatusPending    = "Pending"
	SubStatusInProgress = "InProgress"
	SubStatusCompleted  = "Completed"
)

// IDPrefix is prepended to the sequential order number.
const IDPrefix = "ORD-"

// FormatID renders a sequence number as a human readable order id.
func FormatID(seq int64) string {
	return fmt.Sprintf("%s%03d", IDPrefix, seq)
}

// ParseIDSequence extracts the numeric suffix of an order id.
func ParseIDSequence(id string) (int64, bool) {
	if !strings.HasPrefix(id, IDPrefix) {
		return 0, false
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(id, IDPrefix), 10, 64)
	if err != nil || seq <= 0 {
		return 0, false
	}
	return seq, true
}

// User is an actor that has interacted with an order.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Validate checks the identity supplied by the caller.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrActorRequired
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}
	return nil
}

// Customer carries contact details imported with the order.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// ShippingAddress is opaque pass-through data.
type ShippingAddress struct {
	Line1      string
	Line2      string
	City       string
	Province   string
	PostalCode string
	Country    string
}

// ExternalReference links an order to the system it was imported from.
type ExternalReference struct {
	Source          string
	OrderID         string
	OrderName       string
	FinancialStatus string
	TotalPrice      decimal.Decimal
	Currency        string
}

// Order is the root aggregate of the workflow.
type Order struct {
	ID                 string
	Status             Status
	DigitizerStatus    string
	VendorStatus       string
	Priority           Priority
	ProductDescription string
	TextUnderDesign    string
	LineItems          []LineItem
	Attachments        []Attachment
	Notes              []Note
	AssociatedUsers    []User
	DigitizerID        string
	VendorID           string
	Customer           Customer
	ShippingAddress    ShippingAddress
	External           *ExternalReference
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time

	events []Event
}

// NewOrder builds an order at the start of the workflow.
func NewOrder(id string, customer Customer, now time.Time) (*Order, error) {
	o := &Order{
		ID:        id,
		Status:    StatusAtTeam,
		Priority:  PriorityMedium,
		Customer:  customer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	o.record(OrderCreated{BaseEvent: BaseEvent{Timestamp: now}, OrderID: id, Status: o.Status})
	return o, nil
}

// Validate enforces the aggregate invariants.
func (o *Order) Validate() error {
	if _, ok := ParseIDSequence(o.ID); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidOrderID, o.ID)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, o.Status)
	}
	if o.Priority != "" && !o.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, o.Priority)
	}
	for _, item := range o.LineItems {
		if item.ShippedQuantity < 0 || item.ShippedQuantity > item.Quantity {
			return fmt.Errorf("%w: %s", ErrOvershipment, item.Name)
		}
	}
	return nil
}

// AssociateUser records the actor once; it reports whether the user was added.
func (o *Order) AssociateUser(u User) bool {
	if strings.TrimSpace(u.ID) == "" {
		return false
	}
	for _, existing := range o.AssociatedUsers {
		if existing.ID == u.ID {
			return false
		}
	}
	o.AssociatedUsers = append(o.AssociatedUsers, u)
	return true
}

// IsAssociated reports whether the user id touched or is assigned to the order.
func (o *Order) IsAssociated(userID string) bool {
	if userID == "" {
		return false
	}
	if o.DigitizerID == userID || o.VendorID == userID {
		return true
	}
	for _, u := range o.AssociatedUsers {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// SourceOrderID returns the external order reference, if any.
func (o *Order) SourceOrderID() string {
	if o.External == nil {
		return ""
	}
	return o.External.OrderID
}

// Clone returns a deep copy without pending events.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.events = nil
	clone.LineItems = append([]LineItem(nil), o.LineItems...)
	clone.Attachments = append([]Attachment(nil), o.Attachments...)
	clone.Notes = append([]Note(nil), o.Notes...)
	clone.AssociatedUsers = append([]User(nil), o.AssociatedUsers...)
	if o.External != nil {
		ext := *o.External
		clone.External = &ext
	}
	return &clone
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now
}

// Events returns the domain events recorded since the last ClearEvents.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

// ClearEvents drops recorded events once they are published.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(e Event) {
	o.events = append(o.events, e)
}

var _ AggregateWithEvents = (*Order)(nil)
