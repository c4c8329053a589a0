package models

import (
	"time"

	"github.com/fuelsync/fuelsync/internal/station"
)

// StationRequest is the request body for creating or updating a station.
type StationRequest struct {
	CompanyID        string     `json:"companyId"`
	Name             string     `json:"name"`
	LicenseExpiresAt *time.Time `json:"licenseExpiresAt,omitempty"`
}

// Validate validates the station request.
func (r *StationRequest) Validate() []FieldError {
	var errors []FieldError

	if r.CompanyID == "" {
		errors = append(errors, FieldError{Field: "companyId", Message: "companyId is required", Code: "REQUIRED"})
	}
	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required", Code: "REQUIRED"})
	}

	return errors
}

// StationResponse is the API representation of a station.
type StationResponse struct {
	ID               string          `json:"id"`
	CompanyID        string          `json:"companyId"`
	Name             string          `json:"name"`
	MACAddress       *string         `json:"macAddress,omitempty"`
	IPAddress        *string         `json:"ipAddress,omitempty"`
	State            string          `json:"state"`
	LicenseExpiresAt *time.Time      `json:"licenseExpiresAt,omitempty"`
	LastSyncAt       *time.Time      `json:"lastSyncAt,omitempty"`
	Options          OptionsResponse `json:"options"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewStationResponse maps a station onto its API representation.
func NewStationResponse(s *station.Station) StationResponse {
	return StationResponse{
		ID:               s.ID,
		CompanyID:        s.CompanyID,
		Name:             s.Name,
		MACAddress:       s.MACAddress,
		IPAddress:        s.IPAddress,
		State:            string(s.State),
		LicenseExpiresAt: s.LicenseExpiresAt,
		LastSyncAt:       s.LastSyncAt,
		Options:          newOptionsResponse(s.Options),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// OptionsRequest is the request body for replacing a station's options.
type OptionsRequest struct {
	PistolCount        int     `json:"pistolCount"`
	ProcessorCount     int     `json:"processorCount"`
	ShiftNotify        bool    `json:"shiftNotify"`
	CalibrationNotify  bool    `json:"calibrationNotify"`
	SeasonNotify       bool    `json:"seasonNotify"`
	ReceiptCoefficient bool    `json:"receiptCoefficient"`
	FixShift           bool    `json:"fixShift"`
	AllowDiscount      bool    `json:"allowDiscount"`
	SeasonCount        int     `json:"seasonCount"`
	CurrencyType       string  `json:"currencyType"`
	CurrencyValue      float64 `json:"currencyValue"`
}

// Options converts the request to the domain option set.
func (r *OptionsRequest) Options() station.Options {
	return station.Options{
		PistolCount:        r.PistolCount,
		ProcessorCount:     r.ProcessorCount,
		ShiftNotify:        r.ShiftNotify,
		CalibrationNotify:  r.CalibrationNotify,
		SeasonNotify:       r.SeasonNotify,
		ReceiptCoefficient: r.ReceiptCoefficient,
		FixShift:           r.FixShift,
		AllowDiscount:      r.AllowDiscount,
		SeasonCount:        r.SeasonCount,
		CurrencyType:       r.CurrencyType,
		CurrencyValue:      r.CurrencyValue,
	}
}

// OptionsResponse is the API representation of a station's options.
type OptionsResponse struct {
	PistolCount        int     `json:"pistolCount"`
	ProcessorCount     int     `json:"processorCount"`
	ShiftNotify        bool    `json:"shiftNotify"`
	CalibrationNotify  bool    `json:"calibrationNotify"`
	SeasonNotify       bool    `json:"seasonNotify"`
	ReceiptCoefficient bool    `json:"receiptCoefficient"`
	FixShift           bool    `json:"fixShift"`
	AllowDiscount      bool    `json:"allowDiscount"`
	SeasonCount        int     `json:"seasonCount"`
	CurrencyType       string  `json:"currencyType"`
	CurrencyValue      float64 `json:"currencyValue"`
}

func newOptionsResponse(o station.Options) OptionsResponse {
	return OptionsResponse{
		PistolCount:        o.PistolCount,
		ProcessorCount:     o.ProcessorCount,
		ShiftNotify:        o.ShiftNotify,
		CalibrationNotify:  o.CalibrationNotify,
		SeasonNotify:       o.SeasonNotify,
		ReceiptCoefficient: o.ReceiptCoefficient,
		FixShift:           o.FixShift,
		AllowDiscount:      o.AllowDiscount,
		SeasonCount:        o.SeasonCount,
		CurrencyType:       o.CurrencyType,
		CurrencyValue:      o.CurrencyValue,
	}
}

// AssignFuelsRequest is the request body for replacing a station's
// ordered fuel assignment.
type AssignFuelsRequest struct {
	FuelIDs []string `json:"fuelIds"`
}

// Validate validates the assignment request.
func (r *AssignFuelsRequest) Validate() []FieldError {
	var errors []FieldError

	if r.FuelIDs == nil {
		errors = append(errors, FieldError{Field: "fuelIds", Message: "fuelIds is required", Code: "REQUIRED"})
	}

	return errors
}
