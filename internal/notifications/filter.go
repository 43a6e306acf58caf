package notifications

import (
	"sort"
	"strings"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	"github.com/avaldezm/marketbox-backend/pkg/pagination"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
	"github.com/google/uuid"
)

// FilterQuery narrows the inbox view. ActiveFilter is one of "all", "unread",
// "read", "important" or a notification type name.
type FilterQuery struct {
	SearchTerm   string
	ActiveFilter string
}

// Filter applies the text and category predicates and returns the matches
// sorted by createdAt descending. Newest-first ordering is a hard guarantee.
func Filter(list []upstream.Notification, query FilterQuery) []upstream.Notification {
	matches := make([]upstream.Notification, 0, len(list))
	text := strings.ToLower(strings.TrimSpace(query.SearchTerm))
	category := categoryPredicate(query.ActiveFilter)

	for _, notification := range list {
		if !category(notification) {
			continue
		}
		if text != "" && !matchesText(notification, text) {
			continue
		}
		matches = append(matches, notification)
	}

	SortNewestFirst(matches)
	return matches
}

// SortNewestFirst orders notifications by createdAt descending in place.
func SortNewestFirst(list []upstream.Notification) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

func matchesText(notification upstream.Notification, lowered string) bool {
	return strings.Contains(strings.ToLower(notification.Title), lowered) ||
		strings.Contains(strings.ToLower(notification.Message), lowered)
}

func categoryPredicate(activeFilter string) func(upstream.Notification) bool {
	switch strings.ToLower(strings.TrimSpace(activeFilter)) {
	case "", "all":
		return func(upstream.Notification) bool { return true }
	case "unread":
		return func(n upstream.Notification) bool { return !n.IsRead }
	case "read":
		return func(n upstream.Notification) bool { return n.IsRead }
	case "important":
		return func(n upstream.Notification) bool { return n.Priority == enums.NotificationPriorityHigh }
	default:
		wanted, err := enums.ParseNotificationType(activeFilter)
		if err != nil {
			return func(upstream.Notification) bool { return false }
		}
		return func(n upstream.Notification) bool { return n.Type == wanted }
	}
}

// Page slices a newest-first listing at the cursor position. The returned
// cursor resumes after the last element of the page; empty means the listing
// is exhausted.
func Page(list []upstream.Notification, cursor *pagination.Cursor, limit int) ([]upstream.Notification, string) {
	limit = pagination.NormalizeLimit(limit)

	start := 0
	if cursor != nil {
		start = len(list)
		for i, notification := range list {
			if notification.CreatedAt.Equal(cursor.CreatedAt) && notification.ID == cursor.ID.String() {
				start = i + 1
				break
			}
			// The cursor row may have been deleted between pages; resume at
			// the first strictly older row.
			if notification.CreatedAt.Before(cursor.CreatedAt) {
				start = i
				break
			}
		}
	}

	end := start + limit
	if end >= len(list) {
		return list[start:], ""
	}

	page := list[start:end]
	last := page[len(page)-1]
	id, err := uuid.Parse(last.ID)
	if err != nil {
		return page, ""
	}
	return page, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: id})
}
