package controllers

import (
	"net/http"

	"github.com/printcraft-co/printcraft-backend/api/responses"
	"github.com/printcraft-co/printcraft-backend/pkg/config"
	"github.com/printcraft-co/printcraft-backend/pkg/db"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
	"github.com/printcraft-co/printcraft-backend/pkg/redis"
	"github.com/printcraft-co/printcraft-backend/pkg/storage/gcs"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PrintCraft-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every backing dependency and reports the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PrintCraft-Env", cfg.App.Env)

		checks := []struct {
			name string
			ping func() error
		}{
			{name: "database", ping: func() error { return pingOrNil(dbP != nil, func() error { return dbP.Ping(r.Context()) }) }},
			{name: "redis", ping: func() error { return pingOrNil(redisP != nil, func() error { return redisP.Ping(r.Context()) }) }},
			{name: "storage", ping: func() error { return pingOrNil(gcsP != nil, func() error { return gcsP.Ping(r.Context()) }) }},
		}

		for _, check := range checks {
			if err := check.ping(); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
						WithDetails(map[string]any{"step": check.name}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func pingOrNil(wired bool, ping func() error) error {
	if !wired {
		return nil
	}
	return ping()
}
