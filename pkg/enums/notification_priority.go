package enums

import "fmt"

// NotificationPriority flags notifications that should surface first.
type NotificationPriority string

const (
	NotificationPriorityHigh   NotificationPriority = "HIGH"
	NotificationPriorityNormal NotificationPriority = "NORMAL"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityHigh,
	NotificationPriorityNormal,
}

// IsValid reports whether the value is a known priority.
func (p NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw input into a NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}
