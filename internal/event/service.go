package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service provides event recording with the unviewed-dedup invariant.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new event service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record creates an event unless an unviewed event of the same kind
// already exists for the station. Returns the created event, or nil if
// the condition was deduplicated.
func (s *Service) Record(ctx context.Context, stationID string, kind Kind, message string) (*Event, error) {
	exists, err := s.repo.HasUnviewed(ctx, stationID, kind)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Debug().
			Str("station_id", stationID).
			Str("kind", string(kind)).
			Msg("event suppressed, unviewed event of same kind exists")
		return nil, nil
	}

	event := &Event{
		ID:        "evt_" + uuid.New().String()[:22],
		StationID: stationID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("station_id", stationID).
		Str("kind", string(kind)).
		Msg("station event recorded")
	return event, nil
}

// MarkViewed acknowledges an event, re-arming the watchdog for its kind.
func (s *Service) MarkViewed(ctx context.Context, id string) error {
	return s.repo.MarkViewed(ctx, id)
}

// ListByStation retrieves a station's events, newest first.
func (s *Service) ListByStation(ctx context.Context, stationID string) ([]*Event, error) {
	return s.repo.ListByStation(ctx, stationID)
}

// ListUnviewed retrieves all unviewed events, newest first.
func (s *Service) ListUnviewed(ctx context.Context) ([]*Event, error) {
	return s.repo.ListUnviewed(ctx)
}
