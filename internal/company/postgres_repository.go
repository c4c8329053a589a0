package company

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL company repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const companyColumns = `id, name, contact_name, contact_email, contact_phone, created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.ContactName, &c.ContactEmail, &c.ContactPhone,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Get retrieves a company by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Company, error) {
	return scanCompany(r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

// List retrieves all companies.
func (r *PostgresRepository) List(ctx context.Context) ([]*Company, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Create creates a new company.
func (r *PostgresRepository) Create(ctx context.Context, c *Company) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.ContactName, c.ContactEmail, c.ContactPhone, c.CreatedAt, c.UpdatedAt)
	return err
}

// Update updates an existing company.
func (r *PostgresRepository) Update(ctx context.Context, c *Company) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE companies SET
			name = $2,
			contact_name = $3,
			contact_email = $4,
			contact_phone = $5,
			updated_at = $6
		WHERE id = $1
	`, c.ID, c.Name, c.ContactName, c.ContactEmail, c.ContactPhone, c.UpdatedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// Delete deletes a company that has no stations.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	var hasStations bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stations WHERE company_id = $1)`, id,
	).Scan(&hasStations)
	if err != nil {
		return err
	}
	if hasStations {
		return ErrCompanyHasStations
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
