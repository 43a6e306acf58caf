package orders

import (
	"context"
	"io"
	"testing"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
)

type fakeOrdersClient struct {
	orders      map[string]upstream.Order
	updateCalls int
	updateErr   error
}

func (f *fakeOrdersClient) ListOrders(_ context.Context, query upstream.OrdersQuery) ([]upstream.Order, error) {
	var out []upstream.Order
	for _, order := range f.orders {
		if query.CustomerID != "" && order.CustomerID != query.CustomerID {
			continue
		}
		out = append(out, order)
	}
	return out, nil
}

func (f *fakeOrdersClient) GetOrder(_ context.Context, orderID string) (*upstream.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &order, nil
}

func (f *fakeOrdersClient) UpdateOrderStatus(_ context.Context, orderID string, status enums.OrderStatus) (*upstream.Order, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	order := f.orders[orderID]
	order.Status = status
	f.orders[orderID] = order
	return &order, nil
}

func newOrdersService(t *testing.T, client *fakeOrdersClient) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(client, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestUpdateStatusAdvancesOrder(t *testing.T) {
	client := &fakeOrdersClient{orders: map[string]upstream.Order{
		"order-1": {ID: "order-1", Status: enums.OrderStatusPending},
	}}
	svc := newOrdersService(t, client)

	view, err := svc.UpdateStatus(context.Background(), "order-1", enums.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if view.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", view.Status)
	}
	if client.updateCalls != 1 {
		t.Fatalf("expected single upstream write, got %d", client.updateCalls)
	}
	if len(view.Steps) != 5 {
		t.Fatalf("expected derived steps on view, got %d", len(view.Steps))
	}
}

func TestUpdateStatusRejectsBackwardTransition(t *testing.T) {
	client := &fakeOrdersClient{orders: map[string]upstream.Order{
		"order-1": {ID: "order-1", Status: enums.OrderStatusShipped},
	}}
	svc := newOrdersService(t, client)

	_, err := svc.UpdateStatus(context.Background(), "order-1", enums.OrderStatusProcessing)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if client.updateCalls != 0 {
		t.Fatalf("expected no upstream write, got %d", client.updateCalls)
	}
}

func TestUpdateStatusRejectsTerminalOrders(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		client := &fakeOrdersClient{orders: map[string]upstream.Order{
			"order-1": {ID: "order-1", Status: status},
		}}
		svc := newOrdersService(t, client)

		if _, err := svc.UpdateStatus(context.Background(), "order-1", enums.OrderStatusCancelled); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			t.Errorf("status %s: expected state conflict, got %v", status, err)
		}
	}
}

func TestUpdateStatusCancelsFromAnyNonTerminal(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
	} {
		client := &fakeOrdersClient{orders: map[string]upstream.Order{
			"order-1": {ID: "order-1", Status: status},
		}}
		svc := newOrdersService(t, client)

		view, err := svc.UpdateStatus(context.Background(), "order-1", enums.OrderStatusCancelled)
		if err != nil {
			t.Errorf("status %s: cancel failed: %v", status, err)
			continue
		}
		if view.Status != enums.OrderStatusCancelled {
			t.Errorf("status %s: expected CANCELLED, got %s", status, view.Status)
		}
	}
}

func TestListAttachesDerivedViews(t *testing.T) {
	client := &fakeOrdersClient{orders: map[string]upstream.Order{
		"order-1": {ID: "order-1", CustomerID: "c1", Status: enums.OrderStatusShipped, HasDelivery: true},
		"order-2": {ID: "order-2", CustomerID: "c2", Status: enums.OrderStatusPending},
	}}
	svc := newOrdersService(t, client)

	views, err := svc.List(context.Background(), "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 order for c1, got %d", len(views))
	}
	if views[0].EstimatedCompletion == nil {
		t.Fatal("expected estimate for shipped delivery order")
	}
}
