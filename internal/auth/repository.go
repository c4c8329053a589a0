package auth

import (
	"context"
	"strings"
	"sync"
)

// AdminRepository defines the interface for admin account operations.
type AdminRepository interface {
	// FindByEmail finds an admin by email, case-insensitively.
	FindByEmail(ctx context.Context, email string) (*Admin, error)

	// FindByID finds an admin by their internal ID.
	FindByID(ctx context.Context, id string) (*Admin, error)

	// Create creates a new admin.
	Create(ctx context.Context, admin *Admin) error
}

// InMemoryAdminRepository is an in-memory implementation of
// AdminRepository. This is intended for testing. Production should use
// the PostgreSQL implementation.
type InMemoryAdminRepository struct {
	mu      sync.RWMutex
	admins  map[string]*Admin // keyed by admin ID
	byEmail map[string]string // lowercased email -> admin ID
}

// NewInMemoryAdminRepository creates a new in-memory admin repository.
func NewInMemoryAdminRepository() *InMemoryAdminRepository {
	return &InMemoryAdminRepository{
		admins:  make(map[string]*Admin),
		byEmail: make(map[string]string),
	}
}

// FindByEmail finds an admin by email.
func (r *InMemoryAdminRepository) FindByEmail(_ context.Context, email string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrAdminNotFound
	}

	admin, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}

	adminCopy := *admin
	return &adminCopy, nil
}

// FindByID finds an admin by their internal ID.
func (r *InMemoryAdminRepository) FindByID(_ context.Context, id string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[id]
	if !ok {
		return nil, ErrAdminNotFound
	}

	adminCopy := *admin
	return &adminCopy, nil
}

// Create creates a new admin.
func (r *InMemoryAdminRepository) Create(_ context.Context, admin *Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	adminCopy := *admin
	r.admins[admin.ID] = &adminCopy
	r.byEmail[strings.ToLower(admin.Email)] = admin.ID

	return nil
}

var _ AdminRepository = (*InMemoryAdminRepository)(nil)
