package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
	"github.com/fuelsync/fuelsync/internal/station"
)

// FuelHandler handles fuel catalog endpoints.
type FuelHandler struct {
	stations *station.Service
}

// NewFuelHandler creates a new FuelHandler.
func NewFuelHandler(stations *station.Service) *FuelHandler {
	return &FuelHandler{stations: stations}
}

// ListFuels handles GET /v1/fuels.
func (h *FuelHandler) ListFuels(w http.ResponseWriter, r *http.Request) {
	fuels, err := h.stations.ListFuels(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list fuels")
		return
	}

	out := make([]models.FuelResponse, 0, len(fuels))
	for _, f := range fuels {
		out = append(out, models.NewFuelResponse(f))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// CreateFuel handles POST /v1/fuels.
func (h *FuelHandler) CreateFuel(w http.ResponseWriter, r *http.Request) {
	var req models.FuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	created, err := h.stations.CreateFuel(r.Context(), req.Name, req.Price)
	if err != nil {
		if errors.Is(err, station.ErrValidation) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to create fuel")
		return
	}

	response.Created(w, r, "/v1/fuels/"+created.ID, models.NewFuelResponse(created))
}

// GetFuel handles GET /v1/fuels/{fuelId}.
func (h *FuelHandler) GetFuel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fuelId")

	f, err := h.stations.GetFuel(r.Context(), id)
	if err != nil {
		if errors.Is(err, station.ErrFuelNotFound) {
			response.NotFound(w, r, "fuel not found")
			return
		}
		response.InternalError(w, r, "failed to load fuel")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewFuelResponse(f))
}

// UpdateFuel handles PUT /v1/fuels/{fuelId}.
func (h *FuelHandler) UpdateFuel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fuelId")

	var req models.FuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	updated, err := h.stations.UpdateFuel(r.Context(), id, req.Name, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, station.ErrFuelNotFound):
			response.NotFound(w, r, "fuel not found")
		case errors.Is(err, station.ErrValidation):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			response.InternalError(w, r, "failed to update fuel")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewFuelResponse(updated))
}

// DeleteFuel handles DELETE /v1/fuels/{fuelId}.
func (h *FuelHandler) DeleteFuel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fuelId")

	if err := h.stations.DeleteFuel(r.Context(), id); err != nil {
		if errors.Is(err, station.ErrFuelNotFound) {
			response.NotFound(w, r, "fuel not found")
			return
		}
		response.InternalError(w, r, "failed to delete fuel")
		return
	}

	response.NoContent(w, r)
}
