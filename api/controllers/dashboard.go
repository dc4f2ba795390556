package controllers

import (
	"net/http"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	dashboardsvc "github.com/lowvoltmgr/lowvolt-backend/internal/dashboard"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
)

// DashboardStats returns the landing-page project health summary.
func DashboardStats(svc dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
