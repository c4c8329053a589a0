package company

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrValidation is the base error for rejected input.
var ErrValidation = errors.New("validation failed")

// Service provides company operations.
type Service struct {
	repo Repository
}

// NewService creates a new company service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input contains the editable company fields.
type Input struct {
	Name         string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
}

func (in Input) validate() error {
	if in.Name == "" || len(in.Name) > 120 {
		return fmt.Errorf("%w: name must be 1-120 characters", ErrValidation)
	}
	return nil
}

// Create creates a new company.
func (s *Service) Create(ctx context.Context, input Input) (*Company, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	company := &Company{
		ID:           "cmp_" + uuid.New().String()[:22],
		Name:         input.Name,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Get retrieves a company by ID.
func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves all companies.
func (s *Service) List(ctx context.Context) ([]*Company, error) {
	return s.repo.List(ctx)
}

// Update updates an existing company.
func (s *Service) Update(ctx context.Context, id string, input Input) (*Company, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	company, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	company.Name = input.Name
	company.ContactName = input.ContactName
	company.ContactEmail = input.ContactEmail
	company.ContactPhone = input.ContactPhone
	company.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

// Delete deletes a company with no stations.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
