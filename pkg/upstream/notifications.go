package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
)

// ListNotifications fetches the notification inbox for the given customer.
func (c *Client) ListNotifications(ctx context.Context, customerID string) ([]Notification, error) {
	trimmed := strings.TrimSpace(customerID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer ID is required")
	}

	query := url.Values{"customerId": []string{trimmed}}
	var notifications []Notification
	if err := c.doRead(ctx, "list_notifications", "/api/notifications", query, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CreateNotification publishes a new notification through the marketplace.
func (c *Client) CreateNotification(ctx context.Context, notification Notification) (*Notification, error) {
	if strings.TrimSpace(notification.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification title is required")
	}

	var created Notification
	if err := c.doWrite(ctx, "create_notification", http.MethodPost, "/api/notifications", notification, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

type notificationIDsBody struct {
	NotificationIDs []string `json:"notificationIds"`
}

// MarkNotificationsRead flags the given notifications as read. The marketplace
// treats already-read IDs as no-ops, so repeat calls are safe.
func (c *Client) MarkNotificationsRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.doWrite(ctx, "mark_notifications_read", http.MethodPost, "/api/notifications/mark-read", notificationIDsBody{NotificationIDs: ids}, nil)
}

// MarkNotificationsUnread flags the given notifications as unread.
func (c *Client) MarkNotificationsUnread(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.doWrite(ctx, "mark_notifications_unread", http.MethodPost, "/api/notifications/mark-unread", notificationIDsBody{NotificationIDs: ids}, nil)
}

// DeleteNotifications removes the given notifications permanently.
func (c *Client) DeleteNotifications(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.doWrite(ctx, "delete_notifications", http.MethodDelete, "/api/notifications/delete", notificationIDsBody{NotificationIDs: ids}, nil)
}
