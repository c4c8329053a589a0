// Package changeflag tracks per-station configuration change flags.
//
// A flag is set when an administrator edits a station's options or fuel
// assignment and cleared the moment the station's next sync read of that
// payload succeeds. Flags are strictly event-driven: there is no expiry.
package changeflag

import "context"

// Kind identifies which station payload changed.
type Kind int

const (
	// KindFuels marks the station's fuel assignment as changed.
	KindFuels Kind = iota
	// KindOptions marks the station's option set as changed.
	KindOptions
)

// String returns the storage key fragment for the kind. A closed enum
// with an explicit mapping keeps distinct kinds from ever colliding on
// a shared key.
func (k Kind) String() string {
	switch k {
	case KindFuels:
		return "fuels"
	case KindOptions:
		return "options"
	default:
		return "unknown"
	}
}

// Cache is the change-flag store. Absence of a flag reads as false.
type Cache interface {
	// MarkChanged sets the flag for (stationID, kind).
	MarkChanged(ctx context.Context, stationID string, kind Kind) error

	// ConsumeAndClear returns the current flag value and clears it as
	// one atomic step. Safe to call when nothing was ever set.
	ConsumeAndClear(ctx context.Context, stationID string, kind Kind) (bool, error)

	// Peek returns the current flag value without clearing it.
	Peek(ctx context.Context, stationID string, kind Kind) (bool, error)
}
