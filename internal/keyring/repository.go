package keyring

import "context"

// Replace is the conditional write applied by Repository.Replace. The
// whole operation validates and commits as one atomic step per station
// so two concurrent rotations cannot both succeed.
type Replace struct {
	StationID string
	// MACAddress binds the station on first issuance; on later requests
	// it must equal the bound address.
	MACAddress string
	// ExpectedSecret is the possession proof. Nil means the station
	// must not have a key yet.
	ExpectedSecret *string
	// NewKey is written when every condition holds.
	NewKey StationKey
}

// Repository persists station keys and the MAC binding.
type Repository interface {
	// CurrentKey returns the station's key. ErrStationNotFound if the
	// station does not exist, ErrKeyNotFound if it has no key yet.
	CurrentKey(ctx context.Context, stationID string) (*StationKey, error)

	// Replace validates and applies a conditional key replacement
	// atomically. Returns ErrStationNotFound, ErrMACMismatch,
	// ErrKeyAlreadyIssued or ErrKeyProofMismatch without mutating
	// anything when a condition fails.
	Replace(ctx context.Context, rep Replace) error
}
