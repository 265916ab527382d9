package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
)

type normalizedCreateOrder struct {
	ActorID            string               `json:"actorId"`
	CustomerName       string               `json:"customerName"`
	CustomerEmail      string               `json:"customerEmail"`
	CustomerPhone      string               `json:"customerPhone"`
	ShippingAddress    []string             `json:"shippingAddress"`
	ProductDescription string               `json:"productDescription"`
	LineItems          []normalizedLineItem `json:"lineItems"`
	TextUnderDesign    string               `json:"textUnderDesign"`
	Priority           string               `json:"priority"`
	Note               string               `json:"note"`
}

type normalizedLineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// FingerprintCreateOrder hashes the create request without its idempotency key.
// The actor is part of the hash so two users never share a key.
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	addr := input.ShippingAddress
	normalized := normalizedCreateOrder{
		ActorID:            input.Actor.ID,
		CustomerName:       strings.TrimSpace(input.Customer.Name),
		CustomerEmail:      strings.ToLower(strings.TrimSpace(input.Customer.Email)),
		CustomerPhone:      strings.TrimSpace(input.Customer.Phone),
		ShippingAddress:    []string{addr.Line1, addr.Line2, addr.City, addr.Province, addr.PostalCode, addr.Country},
		ProductDescription: strings.TrimSpace(input.ProductDescription),
		LineItems:          make([]normalizedLineItem, 0, len(input.LineItems)),
		TextUnderDesign:    input.TextUnderDesign,
		Priority:           string(input.Priority),
		Note:               input.Note,
	}
	for _, item := range input.LineItems {
		normalized.LineItems = append(normalized.LineItems, normalizedLineItem{Name: strings.TrimSpace(item.Name), Quantity: item.Quantity})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
