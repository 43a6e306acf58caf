package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one product line held in a session cart.
type Item struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Stock      int             `json:"stock"`
	MerchantID string          `json:"merchantId"`
}

// MerchantSnapshot is the seller profile the cart is bound to.
type MerchantSnapshot struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	ProductCount int    `json:"productCount,omitempty"`
}

// State is the full working copy of a session cart. All items share the
// bound merchant; an empty item list means no merchant is bound.
type State struct {
	Items          []Item            `json:"items"`
	Merchant       *MerchantSnapshot `json:"merchant,omitempty"`
	LastModifiedAt time.Time         `json:"lastModifiedAt"`
}

// Total sums unitPrice*quantity over all items.
func (s *State) Total() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, item := range s.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// ItemCount sums quantities over all items.
func (s *State) ItemCount() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (s *State) IsEmpty() bool {
	return s == nil || len(s.Items) == 0
}

// ProductInput is the catalog snapshot the caller adds to the cart.
type ProductInput struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Stock     int             `json:"stock"`
}

// AddItemInput carries one add-to-cart command.
type AddItemInput struct {
	Product  ProductInput     `json:"product"`
	Merchant MerchantSnapshot `json:"merchant"`
	// Quantity defaults to 1 when zero.
	Quantity int `json:"quantity"`
	// SwitchConfirmed acknowledges discarding a cart bound to another merchant.
	SwitchConfirmed bool `json:"switchConfirmed"`
}
