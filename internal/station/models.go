// Package station provides station and fuel catalog management for the
// back office. Stations are the remote fuel-dispensing devices that the
// sync protocol serves.
package station

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrFuelNotFound    = errors.New("fuel not found")
)

// State is the licensing state of a station as enforced by the
// watchdog's blocking thresholds.
type State string

const (
	StateActive         State = "ACTIVE"
	StateBlockedPartial State = "BLOCKED_PARTIAL"
	StateBlockedFull    State = "BLOCKED_FULL"
)

// Station represents one physical fuel-station device.
type Station struct {
	ID        string
	CompanyID string
	Name      string
	// MACAddress is bound by the key registry on first key issuance and
	// treated as immutable afterwards. Nil until provisioned.
	MACAddress *string
	// IPAddress is the source address of the station's last poll.
	IPAddress *string
	State     State
	// LicenseExpiresAt drives the watchdog's expiry and blocking events.
	LicenseExpiresAt *time.Time
	// LastSyncAt is updated on every successful sync read.
	LastSyncAt *time.Time
	Options    Options
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Options is the per-station configuration set delivered to the device
// through the options sync payload.
type Options struct {
	PistolCount    int
	ProcessorCount int

	ShiftNotify        bool
	CalibrationNotify  bool
	SeasonNotify       bool
	ReceiptCoefficient bool
	FixShift           bool
	AllowDiscount      bool
	SeasonCount        int

	CurrencyType  string
	CurrencyValue float64
}

// Fuel is a catalog entry assignable to stations. Price is back-office
// configuration; the sync payload carries only id and name.
type Fuel struct {
	ID        string
	Name      string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
