package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	"github.com/lowvoltmgr/lowvolt-backend/api/validators"
	"github.com/lowvoltmgr/lowvolt-backend/internal/authz"
	toolsvc "github.com/lowvoltmgr/lowvolt-backend/internal/tools"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/enums"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
)

// ToolsList returns tools, optionally filtered by status bucket.
func ToolsList(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		tools, err := svc.List(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tools)
	}
}

// ToolLookup resolves a tool id or a scanned QR code to one tool.
func ToolLookup(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		query := r.URL.Query().Get("q")
		if strings.TrimSpace(query) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query is required"))
			return
		}

		tool, err := svc.Lookup(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tool)
	}
}

// ToolGet returns one tool by id or QR code.
func ToolGet(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		tool, err := svc.Lookup(r.Context(), chi.URLParam(r, "toolId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tool)
	}
}

type createToolRequest struct {
	Name   string `json:"name" validate:"required"`
	Brand  string `json:"brand"`
	QRCode string `json:"qr_code"`
}

// ToolCreate registers a tool in the crib.
func ToolCreate(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		var payload createToolRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tool, err := svc.Create(r.Context(), toolsvc.CreateInput{
			Name:   strings.TrimSpace(payload.Name),
			Brand:  strings.TrimSpace(payload.Brand),
			QRCode: strings.TrimSpace(payload.QRCode),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, tool)
	}
}

// ToolDelete removes a tool from tracking.
func ToolDelete(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "toolId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type toolTransitionRequest struct {
	User     string `json:"user"`
	Location string `json:"location"`
	Note     string `json:"note"`
}

func (payload toolTransitionRequest) toInput(toolID string) toolsvc.TransitionInput {
	return toolsvc.TransitionInput{
		ToolID:   toolID,
		User:     actorOrDefault(payload.User, defaultTechName),
		Location: strings.TrimSpace(payload.Location),
		Note:     strings.TrimSpace(payload.Note),
	}
}

func toolTransition(svc toolsvc.Service, logg *logger.Logger, apply func(*http.Request, toolsvc.TransitionInput) (*toolsvc.ToolDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		var payload toolTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tool, err := apply(r, payload.toInput(chi.URLParam(r, "toolId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tool)
	}
}

// ToolCheckout hands an available tool to a technician.
func ToolCheckout(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toolTransition(svc, logg, func(r *http.Request, input toolsvc.TransitionInput) (*toolsvc.ToolDTO, error) {
		return svc.Checkout(r.Context(), input)
	})
}

// ToolCheckin returns a checked-out tool to the crib.
func ToolCheckin(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toolTransition(svc, logg, func(r *http.Request, input toolsvc.TransitionInput) (*toolsvc.ToolDTO, error) {
		return svc.Checkin(r.Context(), input)
	})
}

// ToolReportBroken pulls a tool into maintenance.
func ToolReportBroken(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return toolTransition(svc, logg, func(r *http.Request, input toolsvc.TransitionInput) (*toolsvc.ToolDTO, error) {
		return svc.ReportBroken(r.Context(), input)
	})
}

type repairCompleteRequest struct {
	PIN  string `json:"pin" validate:"required"`
	User string `json:"user"`
	Note string `json:"note"`
}

// ToolRepairComplete releases a repaired tool back to available.
func ToolRepairComplete(svc toolsvc.Service, confirmer authz.Confirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		var payload repairCompleteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := confirmer.Confirm(r.Context(), payload.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tool, err := svc.RepairComplete(r.Context(), toolsvc.TransitionInput{
			ToolID: chi.URLParam(r, "toolId"),
			User:   actorOrDefault(payload.User, defaultAdminName),
			Note:   strings.TrimSpace(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tool)
	}
}

type forceStatusRequest struct {
	PIN    string `json:"pin" validate:"required"`
	Status string `json:"status" validate:"required,oneof=available checked_out maintenance"`
	User   string `json:"user"`
	Note   string `json:"note"`
}

// ToolForceStatus is the admin override to an arbitrary status.
func ToolForceStatus(svc toolsvc.Service, confirmer authz.Confirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		var payload forceStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := confirmer.Confirm(r.Context(), payload.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseToolStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		tool, err := svc.ForceStatus(r.Context(), toolsvc.ForceStatusInput{
			ToolID: chi.URLParam(r, "toolId"),
			Status: status,
			User:   actorOrDefault(payload.User, defaultAdminName),
			Note:   strings.TrimSpace(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, tool)
	}
}

// ToolsHistory returns recent tool movement logs.
func ToolsHistory(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		logs, err := svc.History(r.Context(), queryLimit(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, logs)
	}
}

type auditSweepRequest struct {
	FoundIDs []string `json:"found_ids" validate:"required"`
	User     string   `json:"user"`
	Location string   `json:"location"`
}

// ToolsAuditSweep reconciles the site container against a scanned list.
func ToolsAuditSweep(svc toolsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tools service unavailable"))
			return
		}

		var payload auditSweepRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AuditSweep(r.Context(), toolsvc.AuditSweepInput{
			FoundIDs: payload.FoundIDs,
			Actor:    strings.TrimSpace(payload.User),
			Location: strings.TrimSpace(payload.Location),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
