package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
)

// OrdersQuery narrows ListOrders; exactly one field should be set.
type OrdersQuery struct {
	CustomerID string
	MerchantID string
	OrderID    string
}

func (q OrdersQuery) values() (url.Values, error) {
	values := url.Values{}
	if v := strings.TrimSpace(q.CustomerID); v != "" {
		values.Set("customerId", v)
	}
	if v := strings.TrimSpace(q.MerchantID); v != "" {
		values.Set("merchantId", v)
	}
	if v := strings.TrimSpace(q.OrderID); v != "" {
		values.Set("orderId", v)
	}
	if len(values) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders query requires customerId, merchantId or orderId")
	}
	return values, nil
}

// ListOrders fetches orders matching the query.
func (c *Client) ListOrders(ctx context.Context, query OrdersQuery) ([]Order, error) {
	values, err := query.values()
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := c.doRead(ctx, "list_orders", "/api/customer-orders", values, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches a single order by ID.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}

	orders, err := c.ListOrders(ctx, OrdersQuery{OrderID: trimmed})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", trimmed))
	}
	return &orders[0], nil
}

// UpdateOrderStatus asks the marketplace to move an order to the given status
// and returns the updated order. The call is issued exactly once.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*Order, error) {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	body := struct {
		OrderID string            `json:"orderId"`
		Status  enums.OrderStatus `json:"status"`
	}{OrderID: trimmed, Status: status}

	var order Order
	if err := c.doWrite(ctx, "update_order_status", http.MethodPut, "/api/customer-orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
