package upstream

import (
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Merchant is the seller profile returned by the marketplace directory.
type Merchant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	ProductCount int    `json:"productCount"`
}

// Product is a catalog entry for one merchant.
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Category   string          `json:"category,omitempty"`
	MerchantID string          `json:"merchantId,omitempty"`
}

// OrderItem is one purchased line on an order.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Order is the marketplace order record.
type Order struct {
	ID          string            `json:"id"`
	CustomerID  string            `json:"customerId"`
	MerchantID  string            `json:"merchantId"`
	Status      enums.OrderStatus `json:"status"`
	Items       []OrderItem       `json:"items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	DeliveryFee decimal.Decimal   `json:"deliveryFee"`
	Total       decimal.Decimal   `json:"total"`
	HasDelivery bool              `json:"hasDelivery"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// Notification is the marketplace notification record.
type Notification struct {
	ID              string                     `json:"id"`
	Type            enums.NotificationType     `json:"type"`
	Title           string                     `json:"title"`
	Message         string                     `json:"message"`
	IsRead          bool                       `json:"isRead"`
	Priority        enums.NotificationPriority `json:"priority"`
	CreatedAt       time.Time                  `json:"createdAt"`
	RelatedEntityID string                     `json:"relatedEntityId,omitempty"`
	ActionURL       string                     `json:"actionUrl,omitempty"`
}

// Match is a delivery match proposal referenced by match notifications.
type Match struct {
	ID         string `json:"id"`
	ProposalID string `json:"proposalId,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Status     string `json:"status"`
}
