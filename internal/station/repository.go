package station

import (
	"context"
	"time"
)

// Repository defines the interface for station persistence.
type Repository interface {
	// Get retrieves a station by ID.
	Get(ctx context.Context, id string) (*Station, error)

	// List retrieves stations, optionally filtered by company ID
	// (empty string means all).
	List(ctx context.Context, companyID string) ([]*Station, error)

	// Create creates a new station.
	Create(ctx context.Context, station *Station) error

	// Update updates a station's name, company and license expiry.
	Update(ctx context.Context, station *Station) error

	// Delete deletes a station.
	Delete(ctx context.Context, id string) error

	// UpdateOptions replaces the station's option set.
	UpdateOptions(ctx context.Context, id string, opts Options) error

	// AssignedFuels returns the station's fuels in assignment order.
	AssignedFuels(ctx context.Context, stationID string) ([]*Fuel, error)

	// AssignFuels replaces the station's fuel assignment with the given
	// ordered list of fuel IDs.
	AssignFuels(ctx context.Context, stationID string, fuelIDs []string) error

	// RecordSync stores the timestamp and source IP of a sync read.
	RecordSync(ctx context.Context, stationID, ip string, at time.Time) error

	// SetState transitions the station's licensing state.
	SetState(ctx context.Context, stationID string, state State) error
}

// FuelRepository defines the interface for fuel catalog persistence.
type FuelRepository interface {
	Get(ctx context.Context, id string) (*Fuel, error)
	List(ctx context.Context) ([]*Fuel, error)
	Create(ctx context.Context, fuel *Fuel) error
	Update(ctx context.Context, fuel *Fuel) error
	Delete(ctx context.Context, id string) error
}
