package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avaldezm/marketbox-backend/api/responses"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
)

// MerchantCatalog is the slice of the marketplace client these proxied reads
// depend on.
type MerchantCatalog interface {
	ListMerchants(ctx context.Context) ([]upstream.Merchant, error)
	ListMerchantProducts(ctx context.Context, merchantID string) ([]upstream.Product, error)
}

// ListMerchants proxies the merchant directory read.
func ListMerchants(catalog MerchantCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant catalog unavailable"))
			return
		}

		merchants, err := catalog.ListMerchants(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, merchants)
	}
}

// MerchantProducts proxies a merchant's product listing.
func MerchantProducts(catalog MerchantCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merchant catalog unavailable"))
			return
		}

		merchantID := chi.URLParam(r, "merchantId")
		if merchantID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required"))
			return
		}

		products, err := catalog.ListMerchantProducts(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
