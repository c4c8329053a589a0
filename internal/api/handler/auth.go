package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fuelsync/fuelsync/internal/api/models"
	"github.com/fuelsync/fuelsync/internal/api/response"
	"github.com/fuelsync/fuelsync/internal/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RequestCode handles POST /v1/auth/code - start an email login.
// The response is the same whether or not the address is known, so the
// endpoint cannot be used to enumerate operator accounts.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req auth.CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", toFieldErrors(errs))
		return
	}

	err := h.service.RequestCode(r.Context(), req.Email)
	if err != nil && !errors.Is(err, auth.ErrAdminNotFound) {
		response.InternalError(w, r, "failed to issue login code")
		return
	}

	response.JSON(w, r, http.StatusAccepted, map[string]string{
		"message": "if the address is registered, a code has been sent",
	})
}

// VerifyCode handles POST /v1/auth/verify - redeem a login code.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", toFieldErrors(errs))
		return
	}

	tokens, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			response.Unauthorized(w, r, "invalid or expired login code")
			return
		}
		response.InternalError(w, r, "failed to verify login code")
		return
	}

	response.JSON(w, r, http.StatusOK, tokens)
}

// Me handles GET /v1/auth/me - the authenticated operator.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID := GetAdminID(r.Context())

	admin, err := h.service.GetAdmin(r.Context(), adminID)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) {
			response.Unauthorized(w, r, "unknown account")
			return
		}
		response.InternalError(w, r, "failed to load account")
		return
	}

	response.JSON(w, r, http.StatusOK, admin)
}

// toFieldErrors converts auth field errors to API field errors.
func toFieldErrors(errs []auth.FieldError) []models.FieldError {
	out := make([]models.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.FieldError{Field: e.Field, Message: e.Message, Code: e.Code})
	}
	return out
}
