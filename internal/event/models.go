// Package event provides durable station event records: license expiry
// warnings, blocking transitions and missed-sync alerts detected by the
// watchdog, acknowledged (marked viewed) from the back office.
package event

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrEventNotFound = errors.New("event not found")
)

// Kind enumerates the detectable station conditions.
type Kind string

const (
	KindLicenseExpiring3d     Kind = "LICENSE_EXPIRING_3D"
	KindLicenseExpiring1d     Kind = "LICENSE_EXPIRING_1D"
	KindLicenseExpired        Kind = "LICENSE_EXPIRED"
	KindLicenseBlockedPartial Kind = "LICENSE_BLOCKED_PARTIAL"
	KindLicenseBlockedFull    Kind = "LICENSE_BLOCKED_FULL"
	KindSyncMissing1d         Kind = "SYNC_MISSING_1D"
	KindSyncMissing2d         Kind = "SYNC_MISSING_2D"
	KindSyncMissing3d         Kind = "SYNC_MISSING_3D"
)

// Event is an append-only record of a detected condition. Viewed is the
// acknowledgement bit: while an event of some kind is unviewed, the
// watchdog will not create another of the same kind for that station.
type Event struct {
	ID        string
	StationID string
	Kind      Kind
	Message   string
	Viewed    bool
	CreatedAt time.Time
}
