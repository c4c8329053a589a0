package models

import (
	"time"

	"github.com/fuelsync/fuelsync/internal/event"
)

// EventResponse is the API representation of a station event.
type EventResponse struct {
	ID        string    `json:"id"`
	StationID string    `json:"stationId"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Viewed    bool      `json:"viewed"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEventResponse maps an event onto its API representation.
func NewEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID:        e.ID,
		StationID: e.StationID,
		Kind:      string(e.Kind),
		Message:   e.Message,
		Viewed:    e.Viewed,
		CreatedAt: e.CreatedAt,
	}
}
