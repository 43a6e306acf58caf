package upstream

import (
	"context"
	"net/url"
	"strings"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
)

// ListMerchants fetches the marketplace merchant directory.
func (c *Client) ListMerchants(ctx context.Context) ([]Merchant, error) {
	var merchants []Merchant
	if err := c.doRead(ctx, "list_merchants", "/api/merchants", nil, &merchants); err != nil {
		return nil, err
	}
	return merchants, nil
}

// ListMerchantProducts fetches the catalog entries for one merchant.
func (c *Client) ListMerchantProducts(ctx context.Context, merchantID string) ([]Product, error) {
	trimmed := strings.TrimSpace(merchantID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant ID is required")
	}

	query := url.Values{"merchantId": []string{trimmed}}
	var products []Product
	if err := c.doRead(ctx, "list_merchant_products", "/api/merchants/products", query, &products); err != nil {
		return nil, err
	}
	return products, nil
}
