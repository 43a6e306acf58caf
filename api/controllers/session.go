package controllers

import (
	"net/http"

	"github.com/avaldezm/marketbox-backend/api/middleware"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
)

func sessionFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	return sessionID, nil
}
