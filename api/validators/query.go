package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
)

// Query returns a trimmed query parameter, empty when absent.
func Query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// RequireQuery returns a trimmed query parameter or a validation error when
// it is missing.
func RequireQuery(r *http.Request, key string) (string, error) {
	value := Query(r, key)
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
