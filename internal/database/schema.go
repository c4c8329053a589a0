package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements is the full schema, expressed as idempotent DDL so Migrate
// can run on every startup. Order matters: stations references
// companies, the key and fuel assignment tables reference stations.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		contact_name  TEXT,
		contact_email TEXT,
		contact_phone TEXT,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stations (
		id                  TEXT PRIMARY KEY,
		company_id          TEXT NOT NULL REFERENCES companies(id),
		name                TEXT NOT NULL,
		mac_address         TEXT,
		ip_address          TEXT,
		state               TEXT NOT NULL,
		license_expires_at  TIMESTAMPTZ,
		last_sync_at        TIMESTAMPTZ,
		pistol_count        INTEGER NOT NULL DEFAULT 0,
		processor_count     INTEGER NOT NULL DEFAULT 0,
		shift_notify        BOOLEAN NOT NULL DEFAULT FALSE,
		calibration_notify  BOOLEAN NOT NULL DEFAULT FALSE,
		season_notify       BOOLEAN NOT NULL DEFAULT FALSE,
		receipt_coefficient BOOLEAN NOT NULL DEFAULT FALSE,
		fix_shift           BOOLEAN NOT NULL DEFAULT FALSE,
		allow_discount      BOOLEAN NOT NULL DEFAULT FALSE,
		season_count        INTEGER NOT NULL DEFAULT 0,
		currency_type       TEXT NOT NULL DEFAULT '',
		currency_value      DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stations_company_id_idx ON stations (company_id)`,

	`CREATE TABLE IF NOT EXISTS station_keys (
		station_id TEXT PRIMARY KEY REFERENCES stations(id) ON DELETE CASCADE,
		secret     TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS fuels (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		price      DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS station_fuels (
		station_id TEXT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		fuel_id    TEXT NOT NULL REFERENCES fuels(id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		PRIMARY KEY (station_id, fuel_id)
	)`,

	`CREATE TABLE IF NOT EXISTS station_events (
		id         TEXT PRIMARY KEY,
		station_id TEXT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL,
		message    TEXT NOT NULL,
		viewed     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS station_events_unviewed_idx
		ON station_events (station_id, kind) WHERE NOT viewed`,

	`CREATE TABLE IF NOT EXISTS admins (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema to the connected database.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
