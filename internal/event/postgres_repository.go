package event

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL event repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create appends a new event.
func (r *PostgresRepository) Create(ctx context.Context, e *Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO station_events (id, station_id, kind, message, viewed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.StationID, e.Kind, e.Message, e.Viewed, e.CreatedAt)
	return err
}

// HasUnviewed reports whether the station has an unviewed event of the
// given kind.
func (r *PostgresRepository) HasUnviewed(ctx context.Context, stationID string, kind Kind) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM station_events
			WHERE station_id = $1 AND kind = $2 AND NOT viewed
		)
	`, stationID, kind).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.StationID, &e.Kind, &e.Message, &e.Viewed, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// ListByStation retrieves a station's events, newest first.
func (r *PostgresRepository) ListByStation(ctx context.Context, stationID string) ([]*Event, error) {
	return r.list(ctx, `
		SELECT id, station_id, kind, message, viewed, created_at
		FROM station_events
		WHERE station_id = $1
		ORDER BY created_at DESC
	`, stationID)
}

// ListUnviewed retrieves all unviewed events, newest first.
func (r *PostgresRepository) ListUnviewed(ctx context.Context) ([]*Event, error) {
	return r.list(ctx, `
		SELECT id, station_id, kind, message, viewed, created_at
		FROM station_events
		WHERE NOT viewed
		ORDER BY created_at DESC
	`)
}

// MarkViewed acknowledges an event.
func (r *PostgresRepository) MarkViewed(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE station_events SET viewed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
