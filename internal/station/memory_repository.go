package station

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu          sync.RWMutex
	stations    map[string]*Station
	assignments map[string][]string // station ID -> ordered fuel IDs
	fuels       *InMemoryFuelRepository
}

// NewInMemoryRepository creates a new in-memory station repository. The
// fuel repository is consulted to resolve assignments; pass the same
// instance used by the fuel service.
func NewInMemoryRepository(fuels *InMemoryFuelRepository) *InMemoryRepository {
	return &InMemoryRepository{
		stations:    make(map[string]*Station),
		assignments: make(map[string][]string),
		fuels:       fuels,
	}
}

// Get retrieves a station by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stations[id]
	if !ok {
		return nil, ErrStationNotFound
	}
	return copyStation(s), nil
}

// List retrieves stations, optionally filtered by company ID.
func (r *InMemoryRepository) List(_ context.Context, companyID string) ([]*Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stations []*Station
	for _, s := range r.stations {
		if companyID == "" || s.CompanyID == companyID {
			stations = append(stations, copyStation(s))
		}
	}
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].CreatedAt.Before(stations[j].CreatedAt)
	})
	return stations, nil
}

// Create creates a new station.
func (r *InMemoryRepository) Create(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stations[s.ID] = copyStation(s)
	return nil
}

// Update updates a station's name, company and license expiry.
func (r *InMemoryRepository) Update(_ context.Context, s *Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.stations[s.ID]
	if !ok {
		return ErrStationNotFound
	}
	existing.CompanyID = s.CompanyID
	existing.Name = s.Name
	existing.LicenseExpiresAt = copyTime(s.LicenseExpiresAt)
	existing.UpdatedAt = s.UpdatedAt
	return nil
}

// Delete deletes a station.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[id]; !ok {
		return ErrStationNotFound
	}
	delete(r.stations, id)
	delete(r.assignments, id)
	return nil
}

// UpdateOptions replaces the station's option set.
func (r *InMemoryRepository) UpdateOptions(_ context.Context, id string, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stations[id]
	if !ok {
		return ErrStationNotFound
	}
	s.Options = opts
	s.UpdatedAt = time.Now()
	return nil
}

// AssignedFuels returns the station's fuels in assignment order.
func (r *InMemoryRepository) AssignedFuels(ctx context.Context, stationID string) ([]*Fuel, error) {
	r.mu.RLock()
	if _, ok := r.stations[stationID]; !ok {
		r.mu.RUnlock()
		return nil, ErrStationNotFound
	}
	ids := append([]string(nil), r.assignments[stationID]...)
	r.mu.RUnlock()

	fuels := make([]*Fuel, 0, len(ids))
	for _, id := range ids {
		f, err := r.fuels.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		fuels = append(fuels, f)
	}
	return fuels, nil
}

// AssignFuels replaces the station's fuel assignment.
func (r *InMemoryRepository) AssignFuels(_ context.Context, stationID string, fuelIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stations[stationID]; !ok {
		return ErrStationNotFound
	}
	r.assignments[stationID] = append([]string(nil), fuelIDs...)
	return nil
}

// RecordSync stores the timestamp and source IP of a sync read.
func (r *InMemoryRepository) RecordSync(_ context.Context, stationID, ip string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stations[stationID]
	if !ok {
		return ErrStationNotFound
	}
	syncAt := at
	s.LastSyncAt = &syncAt
	if ip != "" {
		addr := ip
		s.IPAddress = &addr
	}
	return nil
}

// SetState transitions the station's licensing state.
func (r *InMemoryRepository) SetState(_ context.Context, stationID string, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stations[stationID]
	if !ok {
		return ErrStationNotFound
	}
	s.State = state
	return nil
}

func copyStation(s *Station) *Station {
	if s == nil {
		return nil
	}
	stationCopy := *s
	stationCopy.MACAddress = copyString(s.MACAddress)
	stationCopy.IPAddress = copyString(s.IPAddress)
	stationCopy.LicenseExpiresAt = copyTime(s.LicenseExpiresAt)
	stationCopy.LastSyncAt = copyTime(s.LastSyncAt)
	return &stationCopy
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	val := *s
	return &val
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	val := *t
	return &val
}

var _ Repository = (*InMemoryRepository)(nil)

// InMemoryFuelRepository is an in-memory implementation of
// FuelRepository for testing.
type InMemoryFuelRepository struct {
	mu    sync.RWMutex
	fuels map[string]*Fuel
}

// NewInMemoryFuelRepository creates a new in-memory fuel repository.
func NewInMemoryFuelRepository() *InMemoryFuelRepository {
	return &InMemoryFuelRepository{fuels: make(map[string]*Fuel)}
}

// Get retrieves a fuel by ID.
func (r *InMemoryFuelRepository) Get(_ context.Context, id string) (*Fuel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.fuels[id]
	if !ok {
		return nil, ErrFuelNotFound
	}
	fuelCopy := *f
	return &fuelCopy, nil
}

// List retrieves all fuels sorted by name.
func (r *InMemoryFuelRepository) List(_ context.Context) ([]*Fuel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fuels := make([]*Fuel, 0, len(r.fuels))
	for _, f := range r.fuels {
		fuelCopy := *f
		fuels = append(fuels, &fuelCopy)
	}
	sort.Slice(fuels, func(i, j int) bool { return fuels[i].Name < fuels[j].Name })
	return fuels, nil
}

// Create creates a new fuel.
func (r *InMemoryFuelRepository) Create(_ context.Context, f *Fuel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fuelCopy := *f
	r.fuels[f.ID] = &fuelCopy
	return nil
}

// Update updates a fuel.
func (r *InMemoryFuelRepository) Update(_ context.Context, f *Fuel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fuels[f.ID]; !ok {
		return ErrFuelNotFound
	}
	fuelCopy := *f
	r.fuels[f.ID] = &fuelCopy
	return nil
}

// Delete deletes a fuel.
func (r *InMemoryFuelRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.fuels[id]; !ok {
		return ErrFuelNotFound
	}
	delete(r.fuels, id)
	return nil
}

var _ FuelRepository = (*InMemoryFuelRepository)(nil)
