package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineItem tracks ordered against shipped quantity for one product.
type LineItem struct {
	Name            string
	Quantity        int
	ShippedQuantity int
}

// Remaining returns how many units are still to ship.
func (li LineItem) Remaining() int {
	if li.ShippedQuantity >= li.Quantity {
		return 0
	}
	return li.Quantity - li.ShippedQuantity
}

// ShipmentEntry reports units shipped for the line item with the given name.
type ShipmentEntry struct {
	Name     string
	Quantity int
}

var descriptionSegment = regexp.MustCompile(`^\s*(\d+)\s*[xX×]\s*(.+?)\s*$`)

// ParseProductDescription turns "2 x Mug, 1 x Hat" into line items.
// Segments without a quantity prefix count as a single unit.
func ParseProductDescription(description string) []LineItem {
	var items []LineItem
	for _, segment := range strings.Split(description, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		item := LineItem{Name: segment, Quantity: 1}
		if m := descriptionSegment.FindStringSubmatch(segment); m != nil {
			if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
				item = LineItem{Name: m[2], Quantity: qty}
			}
		}
		items = append(items, item)
	}
	return items
}

// FormatProductDescription is the inverse of ParseProductDescription.
func FormatProductDescription(items []LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d x %s", item.Quantity, item.Name))
	}
	return strings.Join(parts, ", ")
}

// EnsureLineItems materialises line items from the legacy product description.
// It reports whether anything was derived.
func (o *Order) EnsureLineItems() bool {
	if len(o.LineItems) > 0 || strings.TrimSpace(o.ProductDescription) == "" {
		return false
	}
	o.LineItems = ParseProductDescription(o.ProductDescription)
	return len(o.LineItems) > 0
}

// ValidateShipment checks entries against items without mutating them.
func ValidateShipment(items []LineItem, entries []ShipmentEntry) error {
	_, err := shippedAfter(items, entries)
	return err
}

// ApplyShipment increments shipped quantities. Either every entry is applied
// or none is. It reports whether every line item is now fully shipped.
func (o *Order) ApplyShipment(entries []ShipmentEntry) (bool, error) {
	shipped, err := shippedAfter(o.LineItems, entries)
	if err != nil {
		return false, err
	}
	for i := range o.LineItems {
		o.LineItems[i].ShippedQuantity = shipped[i]
	}
	return o.FullyShipped(), nil
}

// FullyShipped reports whether every line item reached its ordered quantity.
func (o *Order) FullyShipped() bool {
	if len(o.LineItems) == 0 {
		return false
	}
	for _, item := range o.LineItems {
		if item.ShippedQuantity < item.Quantity {
			return false
		}
	}
	return true
}

func shippedAfter(items []LineItem, entries []ShipmentEntry) ([]int, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyShipment
	}
	shipped := make([]int, len(items))
	for i, item := range items {
		shipped[i] = item.ShippedQuantity
	}
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, ErrEmptyLineItemName
		}
		if entry.Quantity < 0 {
			return nil, fmt.Errorf("%w: %s (%d)", ErrNegativeShipment, name, entry.Quantity)
		}
		idx := lineItemIndex(items, name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLineItem, name)
		}
		if entry.Quantity == 0 {
			continue
		}
		if entry.Quantity > items[idx].Quantity-shipped[idx] {
			return nil, fmt.Errorf("%w: %s has %d of %d left, got %d", ErrOvershipment, items[idx].Name, items[idx].Quantity-shipped[idx], items[idx].Quantity, entry.Quantity)
		}
		shipped[idx] += entry.Quantity
	}
	return shipped, nil
}

func lineItemIndex(items []LineItem, name string) int {
	for i, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.Name), name) {
			return i
		}
	}
	return -1
}
