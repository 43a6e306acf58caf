package orders

import (
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
)

// Step is one stage of the linear order progress model.
type Step struct {
	Key       enums.OrderStatus `json:"key"`
	Completed bool              `json:"completed"`
	Current   bool              `json:"current"`
	Cancelled bool              `json:"cancelled"`
}

// DeriveSteps maps an order's status onto the canonical progress sequence.
// Cancellation overrides progress entirely: every step is flagged cancelled
// and none completed or current, regardless of how far the order had moved.
func DeriveSteps(order upstream.Order) []Step {
	steps := make([]Step, len(enums.OrderStatusSequence))
	cancelled := order.Status == enums.OrderStatusCancelled
	statusIdx := order.Status.SequenceIndex()

	for i, key := range enums.OrderStatusSequence {
		step := Step{Key: key}
		if cancelled {
			step.Cancelled = true
		} else if statusIdx >= 0 {
			step.Completed = i <= statusIdx
			step.Current = i == statusIdx
		}
		steps[i] = step
	}
	return steps
}

// Completion offsets from createdAt by current status.
var completionOffsets = map[enums.OrderStatus]time.Duration{
	enums.OrderStatusPending:    3 * 24 * time.Hour,
	enums.OrderStatusConfirmed:  3 * 24 * time.Hour,
	enums.OrderStatusProcessing: 2 * 24 * time.Hour,
	enums.OrderStatusShipped:    1 * 24 * time.Hour,
}

// EstimateCompletion returns the expected delivery time for in-flight
// delivery orders, or nil for delivered, cancelled or pickup orders.
func EstimateCompletion(order upstream.Order) *time.Time {
	if !order.HasDelivery {
		return nil
	}
	offset, ok := completionOffsets[order.Status]
	if !ok {
		return nil
	}
	estimate := order.CreatedAt.Add(offset)
	return &estimate
}
