package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAdminRepository is a PostgreSQL implementation of
// AdminRepository.
type PostgresAdminRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAdminRepository creates a new PostgreSQL admin repository.
func NewPostgresAdminRepository(pool *pgxpool.Pool) *PostgresAdminRepository {
	return &PostgresAdminRepository{pool: pool}
}

// FindByEmail finds an admin by email.
func (r *PostgresAdminRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM admins
		WHERE lower(email) = $1
	`

	var admin Admin
	err := r.pool.QueryRow(ctx, query, strings.ToLower(email)).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}

	return &admin, nil
}

// FindByID finds an admin by their internal ID.
func (r *PostgresAdminRepository) FindByID(ctx context.Context, id string) (*Admin, error) {
	query := `
		SELECT id, email, name, created_at, updated_at
		FROM admins
		WHERE id = $1
	`

	var admin Admin
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Name,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}

	return &admin, nil
}

// Create creates a new admin.
func (r *PostgresAdminRepository) Create(ctx context.Context, admin *Admin) error {
	query := `
		INSERT INTO admins (id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		admin.ID,
		admin.Email,
		admin.Name,
		admin.CreatedAt,
		admin.UpdatedAt,
	)
	return err
}

var _ AdminRepository = (*PostgresAdminRepository)(nil)
