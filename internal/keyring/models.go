// Package keyring owns the lifecycle of the per-station rotating secret:
// it binds a station to a MAC address on first issuance, rotates the key
// on proof of possession, and reports lazy expiry to the sync layer.
package keyring

import (
	"errors"
	"fmt"
	"time"
)

// Registry errors. ErrNotAcceptable is the common base for every
// precondition failure so callers can map the whole family with a
// single errors.Is check.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrKeyNotFound     = errors.New("station key not found")
	ErrNotAcceptable   = errors.New("key request not acceptable")

	ErrInvalidMAC       = fmt.Errorf("%w: invalid mac address", ErrNotAcceptable)
	ErrMACMismatch      = fmt.Errorf("%w: mac address does not match bound address", ErrNotAcceptable)
	ErrKeyAlreadyIssued = fmt.Errorf("%w: station already has a key, rotation requires current key", ErrNotAcceptable)
	ErrKeyProofMismatch = fmt.Errorf("%w: supplied key does not match current key", ErrNotAcceptable)
)

// StationKey is the rotating shared secret bound to one station. At most
// one key exists per station; rotation replaces it. Expiry is a derived
// fact: an expired key stays on record and remains usable as proof of
// possession for the next rotation.
type StationKey struct {
	StationID string
	Secret    string
	ExpiresAt time.Time
}

// Expired reports whether the key's expiry has passed at the given time.
func (k *StationKey) Expired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}

// KeyRequest is an inbound key issuance or rotation claim.
type KeyRequest struct {
	StationID string
	// MACAddress is the hardware address the station presents. The
	// first accepted request binds it; afterwards it must match.
	MACAddress string
	// CurrentSecret proves possession of the existing key. Nil for
	// first issuance, required for every rotation.
	CurrentSecret *string
}
