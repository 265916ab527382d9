package shopify

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	feedclient "github.com/Apurer/orderflow/internal/clients/http/feed"
	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

// SourceName tags orders imported from the storefront.
const SourceName = "shopify"

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>,]+`)

// textUnderDesignKeys are property names that carry the text printed under the design.
var textUnderDesignKeys = []string{"text under design", "text_under_design", "text below design"}

// ToCandidate translates a raw feed order into an import candidate. Every URL
// found in the order note or in order and line-item properties becomes an
// attachment link.
func ToCandidate(order feedclient.Order) ordertypes.ImportCandidate {
	candidate := ordertypes.ImportCandidate{
		Source:          SourceName,
		SourceOrderID:   strings.TrimSpace(order.ID.String()),
		OrderName:       strings.TrimSpace(order.Name),
		Customer:        customer(order),
		ShippingAddress: shippingAddress(order.ShippingAddress),
		FinancialStatus: strings.TrimSpace(order.FinancialStatus),
		TotalPrice:      price(order.TotalPrice),
		Currency:        strings.ToUpper(strings.TrimSpace(order.Currency)),
		CreatedAt:       order.CreatedAt.UTC(),
	}

	links := newLinkSet()
	links.scan(order.Note)
	for _, prop := range order.NoteAttributes {
		links.scan(prop.Value)
		if text := textUnderDesign(prop); text != "" && candidate.TextUnderDesign == "" {
			candidate.TextUnderDesign = text
		}
	}
	for _, item := range order.LineItems {
		name := strings.TrimSpace(item.Title)
		if name == "" || item.Quantity <= 0 {
			continue
		}
		candidate.LineItems = append(candidate.LineItems, domain.LineItem{Name: name, Quantity: item.Quantity})
		for _, prop := range item.Properties {
			links.scan(prop.Value)
			if text := textUnderDesign(prop); text != "" && candidate.TextUnderDesign == "" {
				candidate.TextUnderDesign = text
			}
		}
	}
	candidate.Attachments = links.list
	return candidate
}

// ToCandidates translates a page of feed orders.
func ToCandidates(orders []feedclient.Order) []ordertypes.ImportCandidate {
	result := make([]ordertypes.ImportCandidate, 0, len(orders))
	for _, order := range orders {
		result = append(result, ToCandidate(order))
	}
	return result
}

func customer(order feedclient.Order) domain.Customer {
	c := domain.Customer{Email: strings.TrimSpace(order.Email), Phone: strings.TrimSpace(order.Phone)}
	if order.Customer != nil {
		c.Name = strings.TrimSpace(order.Customer.FirstName + " " + order.Customer.LastName)
		if c.Email == "" {
			c.Email = strings.TrimSpace(order.Customer.Email)
		}
		if c.Phone == "" {
			c.Phone = strings.TrimSpace(order.Customer.Phone)
		}
	}
	if c.Name == "" && order.ShippingAddress != nil {
		c.Name = strings.TrimSpace(order.ShippingAddress.Name)
	}
	if c.Phone == "" && order.ShippingAddress != nil {
		c.Phone = strings.TrimSpace(order.ShippingAddress.Phone)
	}
	return c
}

func shippingAddress(addr *feedclient.Address) domain.ShippingAddress {
	if addr == nil {
		return domain.ShippingAddress{}
	}
	return domain.ShippingAddress{
		Line1:      strings.TrimSpace(addr.Address1),
		Line2:      strings.TrimSpace(addr.Address2),
		City:       strings.TrimSpace(addr.City),
		Province:   strings.TrimSpace(addr.Province),
		PostalCode: strings.TrimSpace(addr.Zip),
		Country:    strings.TrimSpace(addr.Country),
	}
}

func price(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return value
}

func textUnderDesign(prop feedclient.Property) string {
	name := strings.ToLower(strings.TrimSpace(prop.Name))
	for _, key := range textUnderDesignKeys {
		if name == key {
			return strings.TrimSpace(prop.Value)
		}
	}
	return ""
}

type linkSet struct {
	seen map[string]struct{}
	list []ordertypes.AttachmentLink
}

func newLinkSet() *linkSet {
	return &linkSet{seen: map[string]struct{}{}}
}

func (s *linkSet) scan(text string) {
	for _, raw := range urlPattern.FindAllString(text, -1) {
		link := strings.TrimRight(raw, ".;:)]")
		if _, dup := s.seen[link]; dup {
			continue
		}
		s.seen[link] = struct{}{}
		s.list = append(s.list, ordertypes.AttachmentLink{Name: linkName(link), URL: link})
	}
}

// linkName uses the last path segment, falling back to the host.
func linkName(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if base := path.Base(parsed.Path); base != "" && base != "/" && base != "." {
		if unescaped, err := url.PathUnescape(base); err == nil {
			return unescaped
		}
		return base
	}
	return parsed.Host
}
