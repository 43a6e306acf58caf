package controllers

import (
	"net/http"

	"github.com/avaldezm/marketbox-backend/api/responses"
	"github.com/avaldezm/marketbox-backend/api/validators"
	favoritessvc "github.com/avaldezm/marketbox-backend/internal/favorites"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
)

type toggleFavoriteRequest struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Address      string `json:"address"`
	ProductCount int    `json:"productCount"`
}

type toggleFavoriteResponse struct {
	Added     bool                 `json:"added"`
	Favorites []favoritessvc.Entry `json:"favorites"`
}

// FavoritesList returns the session's favorite merchants in insertion order.
func FavoritesList(svc favoritessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.List(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// FavoritesToggle flips the favorite flag for a merchant.
func FavoritesToggle(svc favoritessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		sessionID, err := sessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload toggleFavoriteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added, entries, err := svc.Toggle(r.Context(), sessionID, favoritessvc.MerchantInput{
			ID:           payload.ID,
			Name:         payload.Name,
			Address:      payload.Address,
			ProductCount: payload.ProductCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toggleFavoriteResponse{Added: added, Favorites: entries})
	}
}
