package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fuelsync/fuelsync/internal/changeflag"
)

// ErrValidation is the base error for rejected input. Handlers map it to
// a 400 response; the wrapped message names the offending field.
var ErrValidation = errors.New("validation failed")

// ServiceConfig holds configuration for the station service.
type ServiceConfig struct {
	Repo   Repository
	Fuels  FuelRepository
	Flags  changeflag.Cache
	Logger zerolog.Logger
}

// Service provides station and fuel catalog operations. Edits to a
// station's options or fuel assignment raise the corresponding change
// flag so the device re-fetches on its next poll.
type Service struct {
	repo   Repository
	fuels  FuelRepository
	flags  changeflag.Cache
	logger zerolog.Logger
}

// NewService creates a new station service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:   cfg.Repo,
		fuels:  cfg.Fuels,
		flags:  cfg.Flags,
		logger: cfg.Logger,
	}
}

// CreateInput contains the fields for creating a station.
type CreateInput struct {
	CompanyID        string
	Name             string
	LicenseExpiresAt *time.Time
}

// Create creates a new station in the ACTIVE state with default options.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Station, error) {
	if input.CompanyID == "" {
		return nil, fmt.Errorf("%w: companyId is required", ErrValidation)
	}
	if input.Name == "" || len(input.Name) > 80 {
		return nil, fmt.Errorf("%w: name must be 1-80 characters", ErrValidation)
	}

	now := time.Now()
	station := &Station{
		ID:               "stn_" + uuid.New().String()[:22],
		CompanyID:        input.CompanyID,
		Name:             input.Name,
		State:            StateActive,
		LicenseExpiresAt: input.LicenseExpiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, station); err != nil {
		return nil, err
	}

	s.logger.Info().Str("station_id", station.ID).Str("company_id", station.CompanyID).Msg("station created")
	return station, nil
}

// Get retrieves a station by ID.
func (s *Service) Get(ctx context.Context, id string) (*Station, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves stations, optionally filtered by company ID.
func (s *Service) List(ctx context.Context, companyID string) ([]*Station, error) {
	return s.repo.List(ctx, companyID)
}

// UpdateInput contains the editable station fields.
type UpdateInput struct {
	CompanyID        string
	Name             string
	LicenseExpiresAt *time.Time
}

// Update updates a station's name, company and license expiry.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Station, error) {
	if input.Name == "" || len(input.Name) > 80 {
		return nil, fmt.Errorf("%w: name must be 1-80 characters", ErrValidation)
	}

	station, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	station.CompanyID = input.CompanyID
	station.Name = input.Name
	station.LicenseExpiresAt = input.LicenseExpiresAt
	station.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}

// Delete deletes a station.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// UpdateOptions replaces the station's option set and raises the
// options-changed flag for the device.
func (s *Service) UpdateOptions(ctx context.Context, id string, opts Options) error {
	if opts.PistolCount < 0 || opts.ProcessorCount < 0 || opts.SeasonCount < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrValidation)
	}
	if opts.CurrencyValue < 0 {
		return fmt.Errorf("%w: currencyValue must not be negative", ErrValidation)
	}

	if err := s.repo.UpdateOptions(ctx, id, opts); err != nil {
		return err
	}

	if err := s.flags.MarkChanged(ctx, id, changeflag.KindOptions); err != nil {
		// The write succeeded; a lost flag only delays the device until
		// the next admin edit, so log and move on.
		s.logger.Error().Err(err).Str("station_id", id).Msg("failed to mark options changed")
	}
	return nil
}

// AssignFuels replaces the station's ordered fuel assignment and raises
// the fuels-changed flag for the device.
func (s *Service) AssignFuels(ctx context.Context, id string, fuelIDs []string) error {
	for _, fuelID := range fuelIDs {
		if _, err := s.fuels.Get(ctx, fuelID); err != nil {
			return fmt.Errorf("%w: unknown fuel %s", ErrValidation, fuelID)
		}
	}

	if err := s.repo.AssignFuels(ctx, id, fuelIDs); err != nil {
		return err
	}

	if err := s.flags.MarkChanged(ctx, id, changeflag.KindFuels); err != nil {
		s.logger.Error().Err(err).Str("station_id", id).Msg("failed to mark fuels changed")
	}
	return nil
}

// AssignedFuels returns the station's fuels in assignment order.
func (s *Service) AssignedFuels(ctx context.Context, id string) ([]*Fuel, error) {
	return s.repo.AssignedFuels(ctx, id)
}

// RecordSync stores the timestamp and source IP of a sync read.
func (s *Service) RecordSync(ctx context.Context, id, ip string, at time.Time) error {
	return s.repo.RecordSync(ctx, id, ip, at)
}

// SetState transitions the station's licensing state.
func (s *Service) SetState(ctx context.Context, id string, state State) error {
	return s.repo.SetState(ctx, id, state)
}

// CreateFuel adds a fuel to the catalog.
func (s *Service) CreateFuel(ctx context.Context, name string, price float64) (*Fuel, error) {
	if name == "" || len(name) > 80 {
		return nil, fmt.Errorf("%w: name must be 1-80 characters", ErrValidation)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	now := time.Now()
	fuel := &Fuel{
		ID:        "fuel_" + uuid.New().String()[:22],
		Name:      name,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.fuels.Create(ctx, fuel); err != nil {
		return nil, err
	}
	return fuel, nil
}

// GetFuel retrieves a fuel by ID.
func (s *Service) GetFuel(ctx context.Context, id string) (*Fuel, error) {
	return s.fuels.Get(ctx, id)
}

// ListFuels retrieves the fuel catalog.
func (s *Service) ListFuels(ctx context.Context) ([]*Fuel, error) {
	return s.fuels.List(ctx)
}

// UpdateFuel updates a fuel's name and price.
func (s *Service) UpdateFuel(ctx context.Context, id, name string, price float64) (*Fuel, error) {
	if name == "" || len(name) > 80 {
		return nil, fmt.Errorf("%w: name must be 1-80 characters", ErrValidation)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	fuel, err := s.fuels.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fuel.Name = name
	fuel.Price = price
	fuel.UpdatedAt = time.Now()

	if err := s.fuels.Update(ctx, fuel); err != nil {
		return nil, err
	}
	return fuel, nil
}

// DeleteFuel removes a fuel from the catalog.
func (s *Service) DeleteFuel(ctx context.Context, id string) error {
	return s.fuels.Delete(ctx, id)
}
