package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/avaldezm/marketbox-backend/pkg/idempotency"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
)

const (
	inboxConsumer         = "inbox"
	eventTypeNotification = "notification.created"
	attributeEventType    = "event_type"
)

type appender interface {
	Append(ctx context.Context, sessionID string, notification upstream.Notification) error
}

// notificationEvent is the payload published for server-pushed notifications.
type notificationEvent struct {
	EventID      string                `json:"eventId"`
	SessionID    string                `json:"sessionId"`
	Notification upstream.Notification `json:"notification"`
}

// Consumer ingests server-pushed notification events into session inboxes.
type Consumer struct {
	svc          appender
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds the inbox event consumer.
func NewConsumer(svc appender, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notification service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg.ID, msg.Attributes, msg.Data)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, messageID string, attributes map[string]string, data []byte) processResult {
	eventType := attributes[attributeEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	if eventType != eventTypeNotification {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var event notificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logg.Error(logCtx, "failed to decode notification event", err)
		return processResult{ack: true}
	}

	eventID := strings.TrimSpace(event.EventID)
	if eventID == "" {
		eventID = messageID
	}
	if strings.TrimSpace(event.SessionID) == "" {
		c.logg.Warn(logCtx, "notification event missing session id")
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, inboxConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"session_id":      event.SessionID,
		"notification_id": event.Notification.ID,
	})

	if err := c.svc.Append(ctx, event.SessionID, event.Notification); err != nil {
		c.logg.Error(logCtx, "failed to append notification", err)
		_ = c.idempotency.Delete(ctx, inboxConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification ingested")
	return processResult{ack: true}
}
