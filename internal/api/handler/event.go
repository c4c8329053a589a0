package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
	"github.com/fuelsync/fuelsync/internal/event"
)

// EventHandler handles station event endpoints.
type EventHandler struct {
	events *event.Service
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events *event.Service) *EventHandler {
	return &EventHandler{events: events}
}

// ListUnviewed handles GET /v1/events/unviewed - the operator's inbox.
func (h *EventHandler) ListUnviewed(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListUnviewed(r.Context())
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

// MarkViewed handles POST /v1/events/{eventId}/viewed. Acknowledging an
// event re-arms its alert condition: the watchdog may raise it again on
// a later sweep if the condition still holds.
func (h *EventHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")

	if err := h.events.MarkViewed(r.Context(), id); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			response.NotFound(w, r, "event not found")
			return
		}
		response.InternalError(w, r, "failed to mark event viewed")
		return
	}

	response.NoContent(w, r)
}
