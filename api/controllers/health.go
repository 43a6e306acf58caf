package controllers

import (
	"context"
	"net/http"

	"github.com/avaldezm/marketbox-backend/api/responses"
	"github.com/avaldezm/marketbox-backend/pkg/config"
	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
)

const envHeader = "X-Marketbox-Env"

type pinger interface {
	Ping(context.Context) error
}

// ReadyCheck names a dependency probed by the readiness endpoint.
type ReadyCheck struct {
	Name   string
	Pinger pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready").
					WithDetails(map[string]any{"dependency": check.Name})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
