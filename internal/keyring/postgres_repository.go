package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository. It
// shares the stations table with the station package and owns the
// station_keys table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL key repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CurrentKey returns the station's key.
func (r *PostgresRepository) CurrentKey(ctx context.Context, stationID string) (*StationKey, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stations WHERE id = $1)`, stationID,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrStationNotFound
	}

	var key StationKey
	err = r.pool.QueryRow(ctx, `
		SELECT station_id, secret, expires_at
		FROM station_keys
		WHERE station_id = $1
	`, stationID).Scan(&key.StationID, &key.Secret, &key.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	return &key, nil
}

// Replace applies the conditional key replacement inside one transaction.
// The station row is locked for the duration, which serializes concurrent
// issue/rotate attempts per station.
func (r *PostgresRepository) Replace(ctx context.Context, rep Replace) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin key replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var boundMAC *string
	err = tx.QueryRow(ctx,
		`SELECT mac_address FROM stations WHERE id = $1 FOR UPDATE`, rep.StationID,
	).Scan(&boundMAC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStationNotFound
		}
		return err
	}

	if boundMAC != nil && *boundMAC != rep.MACAddress {
		return ErrMACMismatch
	}

	var currentSecret *string
	err = tx.QueryRow(ctx,
		`SELECT secret FROM station_keys WHERE station_id = $1`, rep.StationID,
	).Scan(&currentSecret)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if rep.ExpectedSecret == nil {
		if currentSecret != nil {
			return ErrKeyAlreadyIssued
		}
	} else {
		if currentSecret == nil || *currentSecret != *rep.ExpectedSecret {
			return ErrKeyProofMismatch
		}
	}

	if boundMAC == nil {
		_, err = tx.Exec(ctx,
			`UPDATE stations SET mac_address = $2, updated_at = now() WHERE id = $1`,
			rep.StationID, rep.MACAddress,
		)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO station_keys (station_id, secret, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (station_id) DO UPDATE SET
			secret = EXCLUDED.secret,
			expires_at = EXCLUDED.expires_at
	`, rep.NewKey.StationID, rep.NewKey.Secret, rep.NewKey.ExpiresAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

var _ Repository = (*PostgresRepository)(nil)
