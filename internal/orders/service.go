package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
)

type upstreamClient interface {
	ListOrders(ctx context.Context, query upstream.OrdersQuery) ([]upstream.Order, error)
	GetOrder(ctx context.Context, orderID string) (*upstream.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*upstream.Order, error)
}

// View is an order enriched with the derived progress model.
type View struct {
	upstream.Order
	Steps               []Step     `json:"steps"`
	EstimatedCompletion *time.Time `json:"estimatedCompletion,omitempty"`
}

// Service proxies order reads and status updates against the marketplace.
type Service interface {
	List(ctx context.Context, customerID string) ([]View, error)
	Get(ctx context.Context, orderID string) (*View, error)
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*View, error)
}

type service struct {
	client upstreamClient
	logg   *logger.Logger
}

// NewService builds an order service backed by the marketplace client.
func NewService(client upstreamClient, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{client: client, logg: logg}, nil
}

// List returns the customer's orders with derived steps attached.
func (s *service) List(ctx context.Context, customerID string) ([]View, error) {
	orders, err := s.client.ListOrders(ctx, upstream.OrdersQuery{CustomerID: customerID})
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(orders))
	for _, order := range orders {
		views = append(views, newView(order))
	}
	return views, nil
}

// Get returns one order with derived steps attached.
func (s *service) Get(ctx context.Context, orderID string) (*View, error) {
	order, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view := newView(*order)
	return &view, nil
}

// UpdateStatus validates the transition locally, issues the upstream write
// once, then re-fetches the authoritative order.
func (s *service) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*View, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	current, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := validateTransition(current.Status, status); err != nil {
		return nil, err
	}

	if _, err := s.client.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	updated, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view := newView(*updated)
	return &view, nil
}

// validateTransition enforces the monotonic status sequence with CANCELLED
// absorbing from any non-terminal state.
func validateTransition(from, to enums.OrderStatus) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", from))
	}
	if to == enums.OrderStatusCancelled {
		return nil
	}
	fromIdx := from.SequenceIndex()
	toIdx := to.SequenceIndex()
	if toIdx <= fromIdx {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to))
	}
	return nil
}

func newView(order upstream.Order) View {
	return View{
		Order:               order,
		Steps:               DeriveSteps(order),
		EstimatedCompletion: EstimateCompletion(order),
	}
}
