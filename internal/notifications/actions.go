package notifications

import "github.com/avaldezm/marketbox-backend/pkg/enums"

// Action is one contextual operation offered for a notification.
type Action string

const (
	ActionView         Action = "view"
	ActionAcceptAndPay Action = "accept-and-pay"
	ActionReject       Action = "reject"
	ActionViewReceipt  Action = "view-receipt"
)

var actionsByType = map[enums.NotificationType][]Action{
	enums.NotificationTypeMatchUpdate:    {ActionAcceptAndPay, ActionView, ActionReject},
	enums.NotificationTypeMatchAccepted:  {ActionView},
	enums.NotificationTypeMessage:        {ActionView},
	enums.NotificationTypeBooking:        {ActionView},
	enums.NotificationTypePayment:        {ActionViewReceipt},
	enums.NotificationTypePaymentSuccess: {ActionViewReceipt},
	enums.NotificationTypeSystem:         {},
}

// ActionsFor returns the contextual actions for a notification type.
// Unknown types get no actions.
func ActionsFor(t enums.NotificationType) []Action {
	actions, ok := actionsByType[t]
	if !ok {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}
