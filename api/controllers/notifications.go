package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avaldezm/marketbox-backend/api/responses"
	"github.com/avaldezm/marketbox-backend/api/validators"
	notificationssvc "github.com/avaldezm/marketbox-backend/internal/notifications"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/pagination"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
)

type notificationIDsRequest struct {
	NotificationIDs []string `json:"notificationIds" validate:"required,min=1"`
}

type deleteNotificationsRequest struct {
	NotificationIDs []string `json:"notificationIds" validate:"required,min=1"`
	Confirm         bool     `json:"confirm"`
}

type toggleSelectionRequest struct {
	NotificationID string `json:"notificationId" validate:"required"`
}

type listNotificationsResponse struct {
	Notifications []upstream.Notification `json:"notifications"`
	NextCursor    string                  `json:"nextCursor,omitempty"`
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit")
	}
	return limit, nil
}

// ListNotifications returns the cached inbox filtered by category and search
// term, newest first.
func ListNotifications(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := notificationssvc.FilterQuery{
			SearchTerm:   validators.Query(r, "search"),
			ActiveFilter: validators.Query(r, "filter"),
		}
		cursor, err := pagination.ParseCursor(validators.Query(r, "cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}
		limit, err := parseLimit(validators.Query(r, "limit"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), sessionID, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, next := notificationssvc.Page(items, cursor, limit)
		responses.WriteSuccess(w, listNotificationsResponse{
			Notifications: page,
			NextCursor:    next,
		})
	}
}

// RefreshNotifications re-fetches the inbox from the marketplace backend.
func RefreshNotifications(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Refresh(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// MarkNotificationsRead marks the given notifications read upstream and in
// the session cache.
func MarkNotificationsRead(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return markHandler(svc, logg, func(r *http.Request, sessionID string, ids []string) error {
		return svc.MarkRead(r.Context(), sessionID, ids)
	})
}

// MarkNotificationsUnread reverts the read flag for the given notifications.
func MarkNotificationsUnread(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return markHandler(svc, logg, func(r *http.Request, sessionID string, ids []string) error {
		return svc.MarkUnread(r.Context(), sessionID, ids)
	})
}

func markHandler(svc notificationssvc.Service, logg *logger.Logger, apply func(*http.Request, string, []string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload notificationIDsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := apply(r, sessionID, payload.NotificationIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": len(payload.NotificationIDs)})
	}
}

// DeleteNotifications removes notifications after an explicit confirmation.
func DeleteNotifications(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload deleteNotificationsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Confirm {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "deletion requires confirmation"))
			return
		}

		if err := svc.Delete(r.Context(), sessionID, payload.NotificationIDs); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": len(payload.NotificationIDs)})
	}
}

// AcceptMatchNotification accepts the proposal behind a match notification
// and returns the created match.
func AcceptMatchNotification(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID := chi.URLParam(r, "notificationId")
		if notificationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "notification id required"))
			return
		}

		match, err := svc.AcceptMatch(r.Context(), sessionID, notificationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, match)
	}
}

// RejectMatchNotification declines the proposal behind a match notification.
func RejectMatchNotification(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID := chi.URLParam(r, "notificationId")
		if notificationID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "notification id required"))
			return
		}

		if err := svc.RejectMatch(r.Context(), sessionID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"rejected": true})
	}
}

// SelectedNotifications returns the current multi-select set.
func SelectedNotifications(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := svc.Selected(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string][]string{"selected": ids})
	}
}

// ToggleNotificationSelection flips a notification in or out of the
// multi-select set.
func ToggleNotificationSelection(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload toggleSelectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := svc.ToggleSelection(r.Context(), sessionID, payload.NotificationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string][]string{"selected": ids})
	}
}

// SelectAllNotifications selects every notification currently in the inbox.
func SelectAllNotifications(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ids, err := svc.SelectAll(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string][]string{"selected": ids})
	}
}

// ClearNotificationSelection empties the multi-select set.
func ClearNotificationSelection(svc notificationssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearSelection(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}
