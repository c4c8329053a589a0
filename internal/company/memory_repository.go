package company

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu        sync.RWMutex
	companies map[string]*Company
	// stationCounts mirrors how many stations reference each company,
	// maintained by tests to exercise the delete guard.
	stationCounts map[string]int
}

// NewInMemoryRepository creates a new in-memory company repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		companies:     make(map[string]*Company),
		stationCounts: make(map[string]int),
	}
}

// SetStationCount records how many stations reference a company.
func (r *InMemoryRepository) SetStationCount(companyID string, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stationCounts[companyID] = count
}

// Get retrieves a company by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	companyCopy := *c
	return &companyCopy, nil
}

// List retrieves all companies sorted by name.
func (r *InMemoryRepository) List(_ context.Context) ([]*Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	companies := make([]*Company, 0, len(r.companies))
	for _, c := range r.companies {
		companyCopy := *c
		companies = append(companies, &companyCopy)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })
	return companies, nil
}

// Create creates a new company.
func (r *InMemoryRepository) Create(_ context.Context, c *Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companyCopy := *c
	r.companies[c.ID] = &companyCopy
	return nil
}

// Update updates an existing company.
func (r *InMemoryRepository) Update(_ context.Context, c *Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.companies[c.ID]; !ok {
		return ErrCompanyNotFound
	}
	companyCopy := *c
	r.companies[c.ID] = &companyCopy
	return nil
}

// Delete deletes a company that has no stations.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.companies[id]; !ok {
		return ErrCompanyNotFound
	}
	if r.stationCounts[id] > 0 {
		return ErrCompanyHasStations
	}
	delete(r.companies, id)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
