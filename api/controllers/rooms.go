package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lowvoltmgr/lowvolt-backend/api/responses"
	"github.com/lowvoltmgr/lowvolt-backend/api/validators"
	"github.com/lowvoltmgr/lowvolt-backend/internal/authz"
	roomsvc "github.com/lowvoltmgr/lowvolt-backend/internal/rooms"
	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
	"github.com/lowvoltmgr/lowvolt-backend/pkg/logger"
)

const roomsExportFilename = "rooms.csv"

// RoomsList returns every tracked technology room.
func RoomsList(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		rooms, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rooms)
	}
}

type createRoomRequest struct {
	ID             string `json:"id" validate:"required"`
	BuildingNumber string `json:"building_number" validate:"required"`
}

// RoomCreate registers a technology room by its TR id.
func RoomCreate(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		var payload createRoomRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		room, err := svc.Create(r.Context(), roomsvc.CreateInput{
			ID:             payload.ID,
			BuildingNumber: payload.BuildingNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, room)
	}
}

// RoomDelete removes a room together with its requirement links.
func RoomDelete(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "roomId")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type wipeRoomsRequest struct {
	PIN string `json:"pin" validate:"required"`
}

// RoomsWipe deletes every room and requirement ahead of a fresh import.
func RoomsWipe(svc roomsvc.Service, confirmer authz.Confirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || confirmer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		var payload wipeRoomsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := confirmer.Confirm(r.Context(), payload.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.WipeAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RoomsFulfillment returns the per-room material fulfillment matrix.
func RoomsFulfillment(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		view, err := svc.FulfillmentView(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// RoomFulfillment returns the fulfillment detail for one room.
func RoomFulfillment(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		detail, err := svc.RoomDetail(r.Context(), chi.URLParam(r, "roomId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

type quickDeployRequest struct {
	User string `json:"user"`
}

// RoomQuickDeploy draws every outstanding requirement for a room from
// site stock in one shot.
func RoomQuickDeploy(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		var payload quickDeployRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.QuickDeploy(r.Context(), chi.URLParam(r, "roomId"), actorOrDefault(payload.User, defaultTechName))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RoomsExportCSV streams the room list as a CSV download.
func RoomsExportCSV(svc roomsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rooms service unavailable"))
			return
		}

		data, err := svc.ExportCSV(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteCSV(w, roomsExportFilename, data)
	}
}
