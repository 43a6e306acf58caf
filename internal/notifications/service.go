package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/keymutex"
	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
	"go.uber.org/multierr"
)

// cacheTTL bounds how long a session inbox survives without a refresh.
const cacheTTL = 24 * time.Hour

type upstreamClient interface {
	ListNotifications(ctx context.Context, customerID string) ([]upstream.Notification, error)
	MarkNotificationsRead(ctx context.Context, ids []string) error
	MarkNotificationsUnread(ctx context.Context, ids []string) error
	DeleteNotifications(ctx context.Context, ids []string) error
	CreateMatch(ctx context.Context, proposalID string) (*upstream.Match, error)
	DecideMatch(ctx context.Context, matchID string, decision enums.MatchDecision) (*upstream.Match, error)
}

// Service owns the session-scoped inbox working copy.
type Service interface {
	Refresh(ctx context.Context, sessionID string) ([]upstream.Notification, error)
	List(ctx context.Context, sessionID string, query FilterQuery) ([]upstream.Notification, error)
	MarkRead(ctx context.Context, sessionID string, ids []string) error
	MarkUnread(ctx context.Context, sessionID string, ids []string) error
	Delete(ctx context.Context, sessionID string, ids []string) error
	ToggleSelection(ctx context.Context, sessionID, notificationID string) ([]string, error)
	SelectAll(ctx context.Context, sessionID string) ([]string, error)
	ClearSelection(ctx context.Context, sessionID string) error
	Selected(ctx context.Context, sessionID string) ([]string, error)
	AcceptMatch(ctx context.Context, sessionID, notificationID string) (*upstream.Match, error)
	RejectMatch(ctx context.Context, sessionID, notificationID string) error
	Append(ctx context.Context, sessionID string, notification upstream.Notification) error
}

type service struct {
	client upstreamClient
	store  kvstore.Store
	logg   *logger.Logger
	locks  *keymutex.KeyMutex
}

// NewService builds an inbox service backed by the marketplace client and a
// session cache.
func NewService(client upstreamClient, store kvstore.Store, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client: client,
		store:  store,
		logg:   logg,
		locks:  keymutex.New(),
	}, nil
}

func itemsKey(sessionID string) string {
	return kvstore.Key("notifications", "items", sessionID)
}

func selectionKey(sessionID string) string {
	return kvstore.Key("notifications", "selection", sessionID)
}

func lockKey(sessionID string) string {
	return fmt.Sprintf("notifications:%s", sessionID)
}

// Refresh pulls the authoritative inbox from the marketplace into the cache.
func (s *service) Refresh(ctx context.Context, sessionID string) ([]upstream.Notification, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	list, err := s.client.ListNotifications(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	SortNewestFirst(list)

	err = s.locks.WithLock(lockKey(sessionID), func() error {
		return s.store.Set(ctx, itemsKey(sessionID), list, cacheTTL)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// List returns the filtered, newest-first view of the cached inbox,
// refreshing from upstream when the cache is cold.
func (s *service) List(ctx context.Context, sessionID string, query FilterQuery) ([]upstream.Notification, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	var cached []upstream.Notification
	found, err := s.store.Get(ctx, itemsKey(sessionID), &cached)
	if err != nil {
		return nil, err
	}
	if !found {
		cached, err = s.Refresh(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}
	return Filter(cached, query), nil
}

// MarkRead flags notifications read upstream first, then mirrors the change
// into the cache. Already-read IDs are no-ops.
func (s *service) MarkRead(ctx context.Context, sessionID string, ids []string) error {
	return s.setReadState(ctx, sessionID, ids, true)
}

// MarkUnread flags notifications unread upstream first, then mirrors the
// change into the cache.
func (s *service) MarkUnread(ctx context.Context, sessionID string, ids []string) error {
	return s.setReadState(ctx, sessionID, ids, false)
}

func (s *service) setReadState(ctx context.Context, sessionID string, ids []string, read bool) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	var err error
	if read {
		err = s.client.MarkNotificationsRead(ctx, ids)
	} else {
		err = s.client.MarkNotificationsUnread(ctx, ids)
	}
	if err != nil {
		return err
	}

	wanted := NewSelection(ids...)
	return s.locks.WithLock(lockKey(sessionID), func() error {
		return s.mutateCache(ctx, sessionID, func(list []upstream.Notification) []upstream.Notification {
			for i := range list {
				if wanted.Has(list[i].ID) {
					list[i].IsRead = read
				}
			}
			return list
		})
	})
}

// Delete removes notifications upstream, then drops them from the cache and
// the selection set. An empty ID list is a no-op.
func (s *service) Delete(ctx context.Context, sessionID string, ids []string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.client.DeleteNotifications(ctx, ids); err != nil {
		return err
	}

	doomed := NewSelection(ids...)
	return s.locks.WithLock(lockKey(sessionID), func() error {
		cacheErr := s.mutateCache(ctx, sessionID, func(list []upstream.Notification) []upstream.Notification {
			kept := list[:0]
			for _, notification := range list {
				if !doomed.Has(notification.ID) {
					kept = append(kept, notification)
				}
			}
			return kept
		})

		selection, selErr := s.loadSelection(ctx, sessionID)
		if selErr == nil {
			selection.Remove(ids...)
			selErr = s.saveSelection(ctx, sessionID, selection)
		}
		return multierr.Append(cacheErr, selErr)
	})
}

// ToggleSelection flips one notification in the selection set.
func (s *service) ToggleSelection(ctx context.Context, sessionID, notificationID string) ([]string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(notificationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification ID is required")
	}

	var ids []string
	err := s.locks.WithLock(lockKey(sessionID), func() error {
		selection, err := s.loadSelection(ctx, sessionID)
		if err != nil {
			return err
		}
		selection.Toggle(notificationID)
		if err := s.saveSelection(ctx, sessionID, selection); err != nil {
			return err
		}
		ids = selection.IDs()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SelectAll selects every cached notification.
func (s *service) SelectAll(ctx context.Context, sessionID string) ([]string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	var ids []string
	err := s.locks.WithLock(lockKey(sessionID), func() error {
		var cached []upstream.Notification
		if _, err := s.store.Get(ctx, itemsKey(sessionID), &cached); err != nil {
			return err
		}
		selection := NewSelection()
		for _, notification := range cached {
			selection.Add(notification.ID)
		}
		if err := s.saveSelection(ctx, sessionID, selection); err != nil {
			return err
		}
		ids = selection.IDs()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ClearSelection empties the selection set.
func (s *service) ClearSelection(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return s.locks.WithLock(lockKey(sessionID), func() error {
		return s.store.Remove(ctx, selectionKey(sessionID))
	})
}

// Selected returns the current selection in stable order.
func (s *service) Selected(ctx context.Context, sessionID string) ([]string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	selection, err := s.loadSelection(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return selection.IDs(), nil
}

// AcceptMatch records the accept decision upstream, creates the match, and
// marks the notification read only after both writes succeed.
func (s *service) AcceptMatch(ctx context.Context, sessionID, notificationID string) (*upstream.Match, error) {
	notification, err := s.findMatchNotification(ctx, sessionID, notificationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.DecideMatch(ctx, notification.RelatedEntityID, enums.MatchDecisionAccept); err != nil {
		return nil, err
	}
	match, err := s.client.CreateMatch(ctx, notification.RelatedEntityID)
	if err != nil {
		return nil, err
	}

	if err := s.MarkRead(ctx, sessionID, []string{notificationID}); err != nil {
		s.logg.Error(ctx, "accepted match but failed to mark notification read", err)
	}
	return match, nil
}

// RejectMatch records the reject decision upstream and marks the
// notification read only after the reject succeeds.
func (s *service) RejectMatch(ctx context.Context, sessionID, notificationID string) error {
	notification, err := s.findMatchNotification(ctx, sessionID, notificationID)
	if err != nil {
		return err
	}

	if _, err := s.client.DecideMatch(ctx, notification.RelatedEntityID, enums.MatchDecisionReject); err != nil {
		return err
	}

	if err := s.MarkRead(ctx, sessionID, []string{notificationID}); err != nil {
		s.logg.Error(ctx, "rejected match but failed to mark notification read", err)
	}
	return nil
}

// Append adds a server-pushed notification to the cache. Duplicate IDs are
// ignored so redelivered events stay idempotent.
func (s *service) Append(ctx context.Context, sessionID string, notification upstream.Notification) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if strings.TrimSpace(notification.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification ID is required")
	}

	return s.locks.WithLock(lockKey(sessionID), func() error {
		return s.mutateCache(ctx, sessionID, func(list []upstream.Notification) []upstream.Notification {
			for _, existing := range list {
				if existing.ID == notification.ID {
					return list
				}
			}
			list = append(list, notification)
			SortNewestFirst(list)
			return list
		})
	})
}

func (s *service) findMatchNotification(ctx context.Context, sessionID, notificationID string) (*upstream.Notification, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(notificationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification ID is required")
	}

	var cached []upstream.Notification
	if _, err := s.store.Get(ctx, itemsKey(sessionID), &cached); err != nil {
		return nil, err
	}
	for i := range cached {
		if cached[i].ID != notificationID {
			continue
		}
		if cached[i].Type != enums.NotificationTypeMatchUpdate {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("notification %s is not a match update", notificationID))
		}
		if strings.TrimSpace(cached[i].RelatedEntityID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("notification %s has no match reference", notificationID))
		}
		return &cached[i], nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("notification %s not found", notificationID))
}

func (s *service) mutateCache(ctx context.Context, sessionID string, mutate func([]upstream.Notification) []upstream.Notification) error {
	var cached []upstream.Notification
	found, err := s.store.Get(ctx, itemsKey(sessionID), &cached)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return s.store.Set(ctx, itemsKey(sessionID), mutate(cached), cacheTTL)
}

func (s *service) loadSelection(ctx context.Context, sessionID string) (Selection, error) {
	var ids []string
	if _, err := s.store.Get(ctx, selectionKey(sessionID), &ids); err != nil {
		return nil, err
	}
	return NewSelection(ids...), nil
}

func (s *service) saveSelection(ctx context.Context, sessionID string, selection Selection) error {
	if len(selection) == 0 {
		return s.store.Remove(ctx, selectionKey(sessionID))
	}
	return s.store.Set(ctx, selectionKey(sessionID), selection.IDs(), cacheTTL)
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session ID is required")
	}
	return nil
}
