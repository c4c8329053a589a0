package event

import "context"

// Repository defines the interface for event persistence.
type Repository interface {
	// Create appends a new event.
	Create(ctx context.Context, event *Event) error

	// HasUnviewed reports whether the station has an unviewed event of
	// the given kind.
	HasUnviewed(ctx context.Context, stationID string, kind Kind) (bool, error)

	// ListByStation retrieves a station's events, newest first.
	ListByStation(ctx context.Context, stationID string) ([]*Event, error)

	// ListUnviewed retrieves all unviewed events, newest first.
	ListUnviewed(ctx context.Context) ([]*Event, error)

	// MarkViewed acknowledges an event.
	MarkViewed(ctx context.Context, id string) error
}
