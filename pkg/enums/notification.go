package enums

import "fmt"

// NotificationType categorizes inbox notifications pushed by the marketplace.
type NotificationType string

const (
	NotificationTypeMessage        NotificationType = "MESSAGE"
	NotificationTypeBooking        NotificationType = "BOOKING"
	NotificationTypePayment        NotificationType = "PAYMENT"
	NotificationTypeMatchUpdate    NotificationType = "MATCH_UPDATE"
	NotificationTypeMatchAccepted  NotificationType = "MATCH_ACCEPTED"
	NotificationTypePaymentSuccess NotificationType = "PAYMENT_SUCCESS"
	NotificationTypeSystem         NotificationType = "SYSTEM"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeMessage,
	NotificationTypeBooking,
	NotificationTypePayment,
	NotificationTypeMatchUpdate,
	NotificationTypeMatchAccepted,
	NotificationTypePaymentSuccess,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
