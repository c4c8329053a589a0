package models

import (
	"time"

	"github.com/fuelsync/fuelsync/internal/station"
)

// FuelRequest is the request body for creating or updating a fuel.
type FuelRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Validate validates the fuel request.
func (r *FuelRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required", Code: "REQUIRED"})
	}
	if r.Price < 0 {
		errors = append(errors, FieldError{Field: "price", Message: "price must not be negative", Code: "INVALID"})
	}

	return errors
}

// FuelResponse is the API representation of a fuel catalog entry.
type FuelResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewFuelResponse maps a fuel onto its API representation.
func NewFuelResponse(f *station.Fuel) FuelResponse {
	return FuelResponse{
		ID:        f.ID,
		Name:      f.Name,
		Price:     f.Price,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
