package upstream

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// PaymentUpdate asks the marketplace payment service to settle or refund a
// payment. The gateway itself lives behind the marketplace; pass-through only.
type PaymentUpdate struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	RefundAmount *decimal.Decimal `json:"refundAmount,omitempty"`
	RefundReason string           `json:"refundReason,omitempty"`
}

// PaymentResult reports the payment state the marketplace recorded.
type PaymentResult struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

// UpdatePayment submits a payment status change or refund request.
func (c *Client) UpdatePayment(ctx context.Context, update PaymentUpdate) (*PaymentResult, error) {
	if strings.TrimSpace(update.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment ID is required")
	}
	if strings.TrimSpace(update.Status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment status is required")
	}
	if update.RefundAmount != nil && !update.RefundAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	var result PaymentResult
	if err := c.doWrite(ctx, "update_payment", http.MethodPost, "/api/payments", update, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
