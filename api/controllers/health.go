package controllers

import (
	"net/http"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/config"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/db"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LowVolt-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LowVolt-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
