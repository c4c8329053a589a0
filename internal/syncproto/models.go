// Package syncproto implements the request/response contract stations
// poll against: encrypted configuration payloads (options, fuels,
// license window) wrapped in change metadata, plus the key issuance
// exchange over the shared admin passphrase.
package syncproto

import (
	"errors"
	"fmt"
	"time"
)

// Protocol errors. ErrNoKey joins the keyring's ErrNotAcceptable family
// so handlers surface it as a 406 like every other precondition
// failure.
var ErrNoKey = errors.New("station has no key")

// NeedUpdate tells the station what it must fetch or do next. Carried
// on every response so one poll is enough to plan the following calls
// over a slow link.
type NeedUpdate struct {
	// Key is true when the station's key has passed its expiry and a
	// rotation request is due.
	Key bool `json:"key"`
	// Fuels is true while an unconsumed fuel assignment change exists.
	Fuels bool `json:"fuels"`
	// Options is true while an unconsumed options change exists.
	Options bool `json:"options"`
}

// Metadata is the plaintext wrapper around every encrypted response.
type Metadata struct {
	NeedUpdate NeedUpdate `json:"needUpdate"`
}

// Envelope is the wire shape of a sync response: plaintext metadata
// plus the encrypted payload as "<nonceHex>:<cipherHex>".
type Envelope struct {
	Metadata Metadata `json:"metadata"`
	Data     string   `json:"data"`
}

// optionsPayload is the decrypted options response.
type optionsPayload struct {
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

// fuelPayload is one entry of the decrypted fuels response. Only id and
// name travel to the device; pricing stays in the back office.
type fuelPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// licensePayload is the decrypted license response. ValidUntil is
// always freshly computed as server time plus the grace window, never
// cached.
type licensePayload struct {
	ValidUntil time.Time `json:"validUntil"`
	ServerTime time.Time `json:"serverTime"`
}

// keyRequestPayload is the decrypted key issuance request body.
type keyRequestPayload struct {
	StationID  string  `json:"stationId"`
	MACAddress string  `json:"macAddress"`
	Key        *string `json:"key,omitempty"`
}

// keyResponsePayload is the decrypted key issuance response body.
type keyResponsePayload struct {
	Key       string    `json:"key"`
	ExpiredAt time.Time `json:"expiredAt"`
}

func (p keyRequestPayload) validate() error {
	if p.StationID == "" {
		return fmt.Errorf("stationId is required")
	}
	if p.MACAddress == "" {
		return fmt.Errorf("macAddress is required")
	}
	return nil
}
