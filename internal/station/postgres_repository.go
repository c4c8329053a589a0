package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const stationColumns = `
	id, company_id, name, mac_address, ip_address, state,
	license_expires_at, last_sync_at,
	pistol_count, processor_count,
	shift_notify, calibration_notify, season_notify,
	receipt_coefficient, fix_shift, allow_discount, season_count,
	currency_type, currency_value,
	created_at, updated_at
`

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanStation(row pgx.Row) (*Station, error) {
	var s Station
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.Name, &s.MACAddress, &s.IPAddress, &s.State,
		&s.LicenseExpiresAt, &s.LastSyncAt,
		&s.Options.PistolCount, &s.Options.ProcessorCount,
		&s.Options.ShiftNotify, &s.Options.CalibrationNotify, &s.Options.SeasonNotify,
		&s.Options.ReceiptCoefficient, &s.Options.FixShift, &s.Options.AllowDiscount,
		&s.Options.SeasonCount,
		&s.Options.CurrencyType, &s.Options.CurrencyValue,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Get retrieves a station by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	return scanStation(r.pool.QueryRow(ctx, query, id))
}

// List retrieves stations, optionally filtered by company ID.
func (r *PostgresRepository) List(ctx context.Context, companyID string) ([]*Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations`
	args := []any{}
	if companyID != "" {
		query += ` WHERE company_id = $1`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// Create creates a new station.
func (r *PostgresRepository) Create(ctx context.Context, s *Station) error {
	query := `
		INSERT INTO stations (` + stationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := r.pool.Exec(ctx, query,
		s.ID, s.CompanyID, s.Name, s.MACAddress, s.IPAddress, s.State,
		s.LicenseExpiresAt, s.LastSyncAt,
		s.Options.PistolCount, s.Options.ProcessorCount,
		s.Options.ShiftNotify, s.Options.CalibrationNotify, s.Options.SeasonNotify,
		s.Options.ReceiptCoefficient, s.Options.FixShift, s.Options.AllowDiscount,
		s.Options.SeasonCount,
		s.Options.CurrencyType, s.Options.CurrencyValue,
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// Update updates a station's name, company and license expiry. The MAC
// binding is owned by the key registry and deliberately not writable
// here.
func (r *PostgresRepository) Update(ctx context.Context, s *Station) error {
	query := `
		UPDATE stations SET
			company_id = $2,
			name = $3,
			license_expires_at = $4,
			updated_at = $5
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		s.ID, s.CompanyID, s.Name, s.LicenseExpiresAt, s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}
	return nil
}

// Delete deletes a station and its key and fuel assignment rows.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM stations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}
	return nil
}

// UpdateOptions replaces the station's option set.
func (r *PostgresRepository) UpdateOptions(ctx context.Context, id string, opts Options) error {
	query := `
		UPDATE stations SET
			pistol_count = $2,
			processor_count = $3,
			shift_notify = $4,
			calibration_notify = $5,
			season_notify = $6,
			receipt_coefficient = $7,
			fix_shift = $8,
			allow_discount = $9,
			season_count = $10,
			currency_type = $11,
			currency_value = $12,
			updated_at = now()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		id,
		opts.PistolCount, opts.ProcessorCount,
		opts.ShiftNotify, opts.CalibrationNotify, opts.SeasonNotify,
		opts.ReceiptCoefficient, opts.FixShift, opts.AllowDiscount,
		opts.SeasonCount,
		opts.CurrencyType, opts.CurrencyValue,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}
	return nil
}

// AssignedFuels returns the station's fuels in assignment order.
func (r *PostgresRepository) AssignedFuels(ctx context.Context, stationID string) ([]*Fuel, error) {
	query := `
		SELECT f.id, f.name, f.price, f.created_at, f.updated_at
		FROM station_fuels sf
		JOIN fuels f ON f.id = sf.fuel_id
		WHERE sf.station_id = $1
		ORDER BY sf.position
	`
	rows, err := r.pool.Query(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fuels []*Fuel
	for rows.Next() {
		var f Fuel
		if err := rows.Scan(&f.ID, &f.Name, &f.Price, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fuels = append(fuels, &f)
	}
	return fuels, rows.Err()
}

// AssignFuels replaces the station's fuel assignment atomically.
func (r *PostgresRepository) AssignFuels(ctx context.Context, stationID string, fuelIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin fuel assignment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stations WHERE id = $1)`, stationID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrStationNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM station_fuels WHERE station_id = $1`, stationID); err != nil {
		return err
	}

	for i, fuelID := range fuelIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO station_fuels (station_id, fuel_id, position) VALUES ($1, $2, $3)`,
			stationID, fuelID, i,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// RecordSync stores the timestamp and source IP of a sync read.
func (r *PostgresRepository) RecordSync(ctx context.Context, stationID, ip string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE stations SET last_sync_at = $2, ip_address = NULLIF($3, '') WHERE id = $1`,
		stationID, at, ip,
	)
	return err
}

// SetState transitions the station's licensing state.
func (r *PostgresRepository) SetState(ctx context.Context, stationID string, state State) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE stations SET state = $2, updated_at = now() WHERE id = $1`,
		stationID, state,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrStationNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)

// PostgresFuelRepository is a PostgreSQL implementation of FuelRepository.
type PostgresFuelRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFuelRepository creates a new PostgreSQL fuel repository.
func NewPostgresFuelRepository(pool *pgxpool.Pool) *PostgresFuelRepository {
	return &PostgresFuelRepository{pool: pool}
}

// Get retrieves a fuel by ID.
func (r *PostgresFuelRepository) Get(ctx context.Context, id string) (*Fuel, error) {
	var f Fuel
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, created_at, updated_at FROM fuels WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Price, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFuelNotFound
		}
		return nil, err
	}
	return &f, nil
}

// List retrieves all fuels.
func (r *PostgresFuelRepository) List(ctx context.Context) ([]*Fuel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, created_at, updated_at FROM fuels ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fuels []*Fuel
	for rows.Next() {
		var f Fuel
		if err := rows.Scan(&f.ID, &f.Name, &f.Price, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fuels = append(fuels, &f)
	}
	return fuels, rows.Err()
}

// Create creates a new fuel.
func (r *PostgresFuelRepository) Create(ctx context.Context, f *Fuel) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fuels (id, name, price, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Name, f.Price, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

// Update updates a fuel.
func (r *PostgresFuelRepository) Update(ctx context.Context, f *Fuel) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE fuels SET name = $2, price = $3, updated_at = $4 WHERE id = $1`,
		f.ID, f.Name, f.Price, f.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFuelNotFound
	}
	return nil
}

// Delete deletes a fuel.
func (r *PostgresFuelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM fuels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFuelNotFound
	}
	return nil
}

var _ FuelRepository = (*PostgresFuelRepository)(nil)
