package event

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	events []*Event
}

// NewInMemoryRepository creates a new in-memory event repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Create appends a new event.
func (r *InMemoryRepository) Create(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eventCopy := *e
	r.events = append(r.events, &eventCopy)
	return nil
}

// HasUnviewed reports whether the station has an unviewed event of the
// given kind.
func (r *InMemoryRepository) HasUnviewed(_ context.Context, stationID string, kind Kind) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.events {
		if e.StationID == stationID && e.Kind == kind && !e.Viewed {
			return true, nil
		}
	}
	return false, nil
}

func sortNewestFirst(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
}

// ListByStation retrieves a station's events, newest first.
func (r *InMemoryRepository) ListByStation(_ context.Context, stationID string) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*Event
	for _, e := range r.events {
		if e.StationID == stationID {
			eventCopy := *e
			events = append(events, &eventCopy)
		}
	}
	sortNewestFirst(events)
	return events, nil
}

// ListUnviewed retrieves all unviewed events, newest first.
func (r *InMemoryRepository) ListUnviewed(_ context.Context) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []*Event
	for _, e := range r.events {
		if !e.Viewed {
			eventCopy := *e
			events = append(events, &eventCopy)
		}
	}
	sortNewestFirst(events)
	return events, nil
}

// MarkViewed acknowledges an event.
func (r *InMemoryRepository) MarkViewed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			e.Viewed = true
			return nil
		}
	}
	return ErrEventNotFound
}

var _ Repository = (*InMemoryRepository)(nil)
