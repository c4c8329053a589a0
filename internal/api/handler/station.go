package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
	"github.com/fuelsync/fuelsync/internal/event"
	"github.com/fuelsync/fuelsync/internal/station"
)

// StationHandler handles station administration endpoints.
type StationHandler struct {
	stations *station.Service
	events   *event.Service
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stations *station.Service, events *event.Service) *StationHandler {
	return &StationHandler{stations: stations, events: events}
}

// ListStations handles GET /v1/stations. An optional companyId query
// parameter narrows the list to one tenant.
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.List(r.Context(), r.URL.Query().Get("companyId"))
	if err != nil {
		response.InternalError(w, r, "failed to list stations")
		return
	}

	out := make([]models.StationResponse, 0, len(stations))
	for _, s := range stations {
		out = append(out, models.NewStationResponse(s))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// CreateStation handles POST /v1/stations.
func (h *StationHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req models.StationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	created, err := h.stations.Create(r.Context(), station.CreateInput{
		CompanyID:        req.CompanyID,
		Name:             req.Name,
		LicenseExpiresAt: req.LicenseExpiresAt,
	})
	if err != nil {
		if errors.Is(err, station.ErrValidation) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to create station")
		return
	}

	response.Created(w, r, "/v1/stations/"+created.ID, models.NewStationResponse(created))
}

// GetStation handles GET /v1/stations/{stationId}.
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	s, err := h.stations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		response.InternalError(w, r, "failed to load station")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewStationResponse(s))
}

// UpdateStation handles PUT /v1/stations/{stationId}.
func (h *StationHandler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	var req models.StationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	updated, err := h.stations.Update(r.Context(), id, station.UpdateInput{
		CompanyID:        req.CompanyID,
		Name:             req.Name,
		LicenseExpiresAt: req.LicenseExpiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, station.ErrStationNotFound):
			response.NotFound(w, r, "station not found")
		case errors.Is(err, station.ErrValidation):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			response.InternalError(w, r, "failed to update station")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewStationResponse(updated))
}

// DeleteStation handles DELETE /v1/stations/{stationId}.
func (h *StationHandler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	if err := h.stations.Delete(r.Context(), id); err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		response.InternalError(w, r, "failed to delete station")
		return
	}

	response.NoContent(w, r)
}

// UpdateOptions handles PUT /v1/stations/{stationId}/options. Replaces
// the option set and flags the station for an options re-fetch.
func (h *StationHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	var req models.OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if err := h.stations.UpdateOptions(r.Context(), id, req.Options()); err != nil {
		switch {
		case errors.Is(err, station.ErrStationNotFound):
			response.NotFound(w, r, "station not found")
		case errors.Is(err, station.ErrValidation):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			response.InternalError(w, r, "failed to update options")
		}
		return
	}

	response.NoContent(w, r)
}

// ListAssignedFuels handles GET /v1/stations/{stationId}/fuels.
func (h *StationHandler) ListAssignedFuels(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	fuels, err := h.stations.AssignedFuels(r.Context(), id)
	if err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		response.InternalError(w, r, "failed to list assigned fuels")
		return
	}

	out := make([]models.FuelResponse, 0, len(fuels))
	for _, f := range fuels {
		out = append(out, models.NewFuelResponse(f))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// AssignFuels handles PUT /v1/stations/{stationId}/fuels. Replaces the
// ordered assignment and flags the station for a fuels re-fetch.
func (h *StationHandler) AssignFuels(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	var req models.AssignFuelsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	if err := h.stations.AssignFuels(r.Context(), id, req.FuelIDs); err != nil {
		switch {
		case errors.Is(err, station.ErrStationNotFound):
			response.NotFound(w, r, "station not found")
		case errors.Is(err, station.ErrValidation):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			response.InternalError(w, r, "failed to assign fuels")
		}
		return
	}

	response.NoContent(w, r)
}

// ListStationEvents handles GET /v1/stations/{stationId}/events.
func (h *StationHandler) ListStationEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stationId")

	if _, err := h.stations.Get(r.Context(), id); err != nil {
		if errors.Is(err, station.ErrStationNotFound) {
			response.NotFound(w, r, "station not found")
			return
		}
		response.InternalError(w, r, "failed to load station")
		return
	}

	events, err := h.events.ListByStation(r.Context(), id)
	if err != nil {
		response.InternalError(w, r, "failed to list events")
		return
	}

	out := make([]models.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, models.NewEventResponse(e))
	}
	response.JSON(w, r, http.StatusOK, out)
}
