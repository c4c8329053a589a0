// Package auth provides email one-time-code authentication for the
// back-office administration API.
package auth

import "time"

// Admin represents a back-office operator allowed to sign in.
type Admin struct {
	ID        string    `json:"adminId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CodeRequest is the request body for starting a login.
type CodeRequest struct {
	Email string `json:"email"`
}

// Validate validates the code request.
func (r *CodeRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Email == "" {
		errors = append(errors, FieldError{
			Field:   "email",
			Message: "email is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// VerifyRequest is the request body for completing a login.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate validates the verify request.
func (r *VerifyRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Email == "" {
		errors = append(errors, FieldError{
			Field:   "email",
			Message: "email is required",
			Code:    "REQUIRED",
		})
	}
	if r.Code == "" {
		errors = append(errors, FieldError{
			Field:   "code",
			Message: "code is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// Admin contains the authenticated operator's information.
	Admin *Admin `json:"admin"`
}
