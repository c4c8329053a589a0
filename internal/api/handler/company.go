package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
	"github.com/fuelsync/fuelsync/internal/company"
)

// CompanyHandler handles tenant company endpoints.
type CompanyHandler struct {
	service *company.Service
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(service *company.Service) *CompanyHandler {
	return &CompanyHandler{service: service}
}

// ListCompanies handles GET /v1/companies.
func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list companies")
		return
	}

	out := make([]models.CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, models.NewCompanyResponse(c))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// CreateCompany handles POST /v1/companies.
func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req models.CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	created, err := h.service.Create(r.Context(), req.Input())
	if err != nil {
		if errors.Is(err, company.ErrValidation) {
			response.BadRequest(w, r, err.Error(), nil)
			return
		}
		response.InternalError(w, r, "failed to create company")
		return
	}

	response.Created(w, r, "/v1/companies/"+created.ID, models.NewCompanyResponse(created))
}

// GetCompany handles GET /v1/companies/{companyId}.
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "companyId")

	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			response.NotFound(w, r, "company not found")
			return
		}
		response.InternalError(w, r, "failed to load company")
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewCompanyResponse(c))
}

// UpdateCompany handles PUT /v1/companies/{companyId}.
func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "companyId")

	var req models.CompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.Input())
	if err != nil {
		switch {
		case errors.Is(err, company.ErrCompanyNotFound):
			response.NotFound(w, r, "company not found")
		case errors.Is(err, company.ErrValidation):
			response.BadRequest(w, r, err.Error(), nil)
		default:
			response.InternalError(w, r, "failed to update company")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.NewCompanyResponse(updated))
}

// DeleteCompany handles DELETE /v1/companies/{companyId}.
func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "companyId")

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, company.ErrCompanyNotFound):
			response.NotFound(w, r, "company not found")
		case errors.Is(err, company.ErrCompanyHasStations):
			response.Conflict(w, r, "company still has stations")
		default:
			response.InternalError(w, r, "failed to delete company")
		}
		return
	}

	response.NoContent(w, r)
}
