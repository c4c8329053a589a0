package keyring

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL
// implementation.
type InMemoryRepository struct {
	mu       sync.Mutex
	bindings map[string]*string     // station ID -> bound MAC (nil until bound)
	keys     map[string]*StationKey // station ID -> current key
}

// NewInMemoryRepository creates a new in-memory key repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		bindings: make(map[string]*string),
		keys:     make(map[string]*StationKey),
	}
}

// AddStation registers a station the repository knows about. mac may be
// nil for a station with no bound address yet.
func (r *InMemoryRepository) AddStation(stationID string, mac *string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bindings[stationID] = mac
}

// BoundMAC returns the station's bound MAC address, nil if unbound.
func (r *InMemoryRepository) BoundMAC(stationID string) *string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.bindings[stationID]
}

// CurrentKey returns the station's key.
func (r *InMemoryRepository) CurrentKey(_ context.Context, stationID string) (*StationKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bindings[stationID]; !ok {
		return nil, ErrStationNotFound
	}

	key, ok := r.keys[stationID]
	if !ok {
		return nil, ErrKeyNotFound
	}

	keyCopy := *key
	return &keyCopy, nil
}

// Replace validates and applies the conditional replacement under one
// lock, mirroring the transactional semantics of the Postgres
// implementation.
func (r *InMemoryRepository) Replace(_ context.Context, rep Replace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	boundMAC, ok := r.bindings[rep.StationID]
	if !ok {
		return ErrStationNotFound
	}

	if boundMAC != nil && *boundMAC != rep.MACAddress {
		return ErrMACMismatch
	}

	current := r.keys[rep.StationID]
	if rep.ExpectedSecret == nil {
		if current != nil {
			return ErrKeyAlreadyIssued
		}
	} else {
		if current == nil || current.Secret != *rep.ExpectedSecret {
			return ErrKeyProofMismatch
		}
	}

	if boundMAC == nil {
		mac := rep.MACAddress
		r.bindings[rep.StationID] = &mac
	}

	newKey := rep.NewKey
	r.keys[rep.StationID] = &newKey
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
