package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	"github.com/lowvoltmgr/lowvolt-backend/api/validators"
	"github.com/lowvoltmgr/lowvolt-backend/internal/authz"
	materialsvc "github.com/lowvoltmgr/lowvolt-backend/internal/materials"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
)

const (
	defaultTechName  = "Technician"
	defaultAdminName = "Admin"
)

func actorOrDefault(name, fallback string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fallback
}

func queryLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}

// MaterialsList returns the full catalog.
func MaterialsList(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// MaterialLookup resolves a scanned id or a partial name to one material.
func MaterialLookup(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		query := r.URL.Query().Get("q")
		if strings.TrimSpace(query) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query is required"))
			return
		}

		material, err := svc.Lookup(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

type createMaterialRequest struct {
	PartNumber string `json:"part_number"`
	Name       string `json:"name" validate:"required"`
	Category   string `json:"category"`
	Unit       string `json:"unit"`
	QtyBidDay  int    `json:"qty_bid_day" validate:"omitempty,min=0"`
}

// MaterialCreate adds a material to the catalog.
func MaterialCreate(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		var payload createMaterialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.Create(r.Context(), materialsvc.CreateInput{
			PartNumber: strings.TrimSpace(payload.PartNumber),
			Name:       strings.TrimSpace(payload.Name),
			Category:   strings.TrimSpace(payload.Category),
			Unit:       strings.TrimSpace(payload.Unit),
			QtyBidDay:  payload.QtyBidDay,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, material)
	}
}

// MaterialDelete removes a material from the catalog.
func MaterialDelete(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "materialId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type receiveRequest struct {
	Amount int    `json:"amount" validate:"required,min=1"`
	Target string `json:"target" validate:"omitempty,oneof=office site"`
}

// MaterialReceive books a delivery against the open order.
func MaterialReceive(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		var payload receiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := enums.ReceiveTargetOffice
		if payload.Target != "" {
			parsed, err := enums.ParseReceiveTarget(payload.Target)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target"))
				return
			}
			target = parsed
		}

		material, err := svc.Receive(r.Context(), materialsvc.ReceiveInput{
			MaterialID: chi.URLParam(r, "materialId"),
			Amount:     payload.Amount,
			Target:     target,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

type sendToSiteRequest struct {
	Amount int `json:"amount" validate:"required,min=1"`
}

// MaterialSendToSite moves stock from the office shelf to the site container.
func MaterialSendToSite(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		var payload sendToSiteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.SendToSite(r.Context(), chi.URLParam(r, "materialId"), payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

type installRequest struct {
	Amount int    `json:"amount" validate:"required,min=1"`
	RoomID string `json:"room_id"`
	User   string `json:"user"`
}

// MaterialInstall consumes site stock, optionally against a room.
func MaterialInstall(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		var payload installRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.Install(r.Context(), materialsvc.InstallInput{
			MaterialID: chi.URLParam(r, "materialId"),
			Amount:     payload.Amount,
			RoomID:     payload.RoomID,
			Actor:      actorOrDefault(payload.User, defaultTechName),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

type auditCorrectRequest struct {
	PIN         string `json:"pin" validate:"required"`
	QtyOnOrder  int    `json:"qty_on_order" validate:"min=0"`
	QtyAtOffice int    `json:"qty_at_office" validate:"min=0"`
	QtyAtSite   int    `json:"qty_at_site" validate:"min=0"`
	User        string `json:"user"`
}

// MaterialAuditCorrect overwrites the live counters after a physical count.
func MaterialAuditCorrect(svc materialsvc.Service, confirmer authz.Confirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		var payload auditCorrectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := confirmer.Confirm(r.Context(), payload.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.AuditCorrect(r.Context(), materialsvc.AuditCorrectInput{
			MaterialID:  chi.URLParam(r, "materialId"),
			NewOnOrder:  payload.QtyOnOrder,
			NewAtOffice: payload.QtyAtOffice,
			NewAtSite:   payload.QtyAtSite,
			Actor:       actorOrDefault(payload.User, defaultAdminName),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, material)
	}
}

// MaterialsHistory returns recent ledger entries joined with material
// names. An optional material_id query param narrows to one material.
func MaterialsHistory(svc materialsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "materials service unavailable"))
			return
		}

		entries, err := svc.History(r.Context(), r.URL.Query().Get("material_id"), queryLimit(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entries)
	}
}
