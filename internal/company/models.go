// Package company provides tenant company and contact management.
package company

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrCompanyNotFound    = errors.New("company not found")
	ErrCompanyHasStations = errors.New("company still has stations")
)

// Company is a tenant owning a set of stations.
type Company struct {
	ID           string
	Name         string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
