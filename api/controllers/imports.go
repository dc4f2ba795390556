package controllers

import (
	"net/http"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	importsvc "github.com/lowvoltmgr/lowvolt-backend/internal/importer"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/config"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
)

// ImportCatalog ingests a bid sheet CSV posted as the request body.
func ImportCatalog(svc importsvc.Service, cfg config.ImportConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "import service unavailable"))
			return
		}

		body := http.MaxBytesReader(w, r.Body, int64(cfg.MaxUploadMB)<<20)
		defer body.Close()

		result, err := svc.ImportCatalog(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ImportTracker ingests a room tracker CSV posted as the request body.
func ImportTracker(svc importsvc.Service, cfg config.ImportConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "import service unavailable"))
			return
		}

		body := http.MaxBytesReader(w, r.Body, int64(cfg.MaxUploadMB)<<20)
		defer body.Close()

		result, err := svc.ImportTracker(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
