package feed

import (
	"encoding/json"
	"time"
)

// Order is a raw order record as served by the storefront feed.
type Order struct {
	ID              json.Number     `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Note            string          `json:"note"`
	NoteAttributes  []Property      `json:"note_attributes"`
	FinancialStatus string          `json:"financial_status"`
	TotalPrice      string          `json:"total_price"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"created_at"`
	Customer        *Customer       `json:"customer"`
	ShippingAddress *Address        `json:"shipping_address"`
	LineItems       []LineItem      `json:"line_items"`
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Address struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone"`
}

type LineItem struct {
	Title      string     `json:"title"`
	Quantity   int        `json:"quantity"`
	Properties []Property `json:"properties"`
}

// Property is a free-form name/value pair attached to an order or line item.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ListOrdersParams filters ListOrders.
type ListOrdersParams struct {
	Status       string
	CreatedAtMin *time.Time
	Limit        int
}

type listOrdersResponse struct {
	Orders []Order `json:"orders"`
}

// Error is the feed's error body.
type Error struct {
	Errors  json.RawMessage `json:"errors"`
	Message *string         `json:"message"`
}
