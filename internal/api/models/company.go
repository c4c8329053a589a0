package models

import (
	"time"

	"github.com/fuelsync/fuelsync/internal/company"
)

// CompanyRequest is the request body for creating or updating a company.
type CompanyRequest struct {
	Name         string  `json:"name"`
	ContactName  *string `json:"contactName,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty"`
	ContactPhone *string `json:"contactPhone,omitempty"`
}

// Validate validates the company request.
func (r *CompanyRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required", Code: "REQUIRED"})
	}

	return errors
}

// Input converts the request to the domain input.
func (r *CompanyRequest) Input() company.Input {
	return company.Input{
		Name:         r.Name,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
	}
}

// CompanyResponse is the API representation of a company.
type CompanyResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactName  *string   `json:"contactName,omitempty"`
	ContactEmail *string   `json:"contactEmail,omitempty"`
	ContactPhone *string   `json:"contactPhone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewCompanyResponse maps a company onto its API representation.
func NewCompanyResponse(c *company.Company) CompanyResponse {
	return CompanyResponse{
		ID:           c.ID,
		Name:         c.Name,
		ContactName:  c.ContactName,
		ContactEmail: c.ContactEmail,
		ContactPhone: c.ContactPhone,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
