package company

import "context"

// Repository defines the interface for company persistence.
type Repository interface {
	// Get retrieves a company by ID.
	Get(ctx context.Context, id string) (*Company, error)

	// List retrieves all companies.
	List(ctx context.Context) ([]*Company, error)

	// Create creates a new company.
	Create(ctx context.Context, company *Company) error

	// Update updates an existing company.
	Update(ctx context.Context, company *Company) error

	// Delete deletes a company. Fails with ErrCompanyHasStations while
	// stations still reference it.
	Delete(ctx context.Context, id string) error
}
