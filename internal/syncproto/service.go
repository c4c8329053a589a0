package syncproto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelsync/fuelsync/internal/changeflag"
	"github.com/fuelsync/fuelsync/internal/keyring"
	"github.com/fuelsync/fuelsync/internal/secure"
	"github.com/fuelsync/fuelsync/internal/station"
)

// DefaultLicenseGrace is the validity window handed out by FetchLicense
// when none is configured. The device treats validUntil as "call home
// again before this", so the window stays short.
const DefaultLicenseGrace = 72 * time.Hour

// ServiceConfig holds configuration for the sync protocol service.
type ServiceConfig struct {
	Stations *station.Service
	Keys     *keyring.Service
	Flags    changeflag.Cache
	Logger   zerolog.Logger

	// SharedPassphrase encrypts the key issuance exchange. Every other
	// payload uses the station's own key.
	SharedPassphrase string

	// LicenseGrace is the validUntil window. Defaults to
	// DefaultLicenseGrace.
	LicenseGrace time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service answers station sync polls. Every fetch encrypts its payload
// with the station's current key, even an expired one: the metadata key
// flag tells the device to rotate, but the old key keeps working so the
// device is never locked out of the answer telling it to rotate.
type Service struct {
	stations *station.Service
	keys     *keyring.Service
	flags    changeflag.Cache
	logger   zerolog.Logger
	shared   string
	grace    time.Duration
	now      func() time.Time
}

// NewService creates a new sync protocol service.
func NewService(cfg ServiceConfig) *Service {
	grace := cfg.LicenseGrace
	if grace == 0 {
		grace = DefaultLicenseGrace
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		stations: cfg.Stations,
		keys:     cfg.Keys,
		flags:    cfg.Flags,
		logger:   cfg.Logger,
		shared:   cfg.SharedPassphrase,
		grace:    grace,
		now:      now,
	}
}

// FetchOptions returns the station's option set. Reading it consumes
// the options-changed flag; the fuels flag is only peeked so the device
// learns about a pending fuel change without clearing it.
func (s *Service) FetchOptions(ctx context.Context, stationID, ip string) (*Envelope, error) {
	st, key, err := s.resolve(ctx, stationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.flags.ConsumeAndClear(ctx, stationID, changeflag.KindOptions); err != nil {
		return nil, fmt.Errorf("consume options flag: %w", err)
	}
	fuels, err := s.flags.Peek(ctx, stationID, changeflag.KindFuels)
	if err != nil {
		return nil, fmt.Errorf("peek fuels flag: %w", err)
	}

	o := st.Options
	payload := optionsPayload{
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

	env, err := s.seal(payload, key, NeedUpdate{Fuels: fuels})
	if err != nil {
		return nil, err
	}
	s.recordSync(ctx, stationID, ip)
	return env, nil
}

// FetchFuels returns the station's ordered fuel assignment. Reading it
// consumes the fuels-changed flag; the options flag is only peeked.
func (s *Service) FetchFuels(ctx context.Context, stationID, ip string) (*Envelope, error) {
	_, key, err := s.resolve(ctx, stationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.flags.ConsumeAndClear(ctx, stationID, changeflag.KindFuels); err != nil {
		return nil, fmt.Errorf("consume fuels flag: %w", err)
	}
	options, err := s.flags.Peek(ctx, stationID, changeflag.KindOptions)
	if err != nil {
		return nil, fmt.Errorf("peek options flag: %w", err)
	}

	fuels, err := s.stations.AssignedFuels(ctx, stationID)
	if err != nil {
		return nil, err
	}
	payload := make([]fuelPayload, 0, len(fuels))
	for _, f := range fuels {
		payload = append(payload, fuelPayload{ID: f.ID, Name: f.Name})
	}

	env, err := s.seal(payload, key, NeedUpdate{Options: options})
	if err != nil {
		return nil, err
	}
	s.recordSync(ctx, stationID, ip)
	return env, nil
}

// FetchLicense returns a freshly computed validity window. It consumes
// no flags; both are peeked so the metadata still reflects pending
// changes.
func (s *Service) FetchLicense(ctx context.Context, stationID, ip string) (*Envelope, error) {
	_, key, err := s.resolve(ctx, stationID)
	if err != nil {
		return nil, err
	}

	fuels, err := s.flags.Peek(ctx, stationID, changeflag.KindFuels)
	if err != nil {
		return nil, fmt.Errorf("peek fuels flag: %w", err)
	}
	options, err := s.flags.Peek(ctx, stationID, changeflag.KindOptions)
	if err != nil {
		return nil, fmt.Errorf("peek options flag: %w", err)
	}

	now := s.now().UTC()
	payload := licensePayload{
		ValidUntil: now.Add(s.grace),
		ServerTime: now,
	}

	env, err := s.seal(payload, key, NeedUpdate{Fuels: fuels, Options: options})
	if err != nil {
		return nil, err
	}
	s.recordSync(ctx, stationID, ip)
	return env, nil
}

// IssueKey handles the key issuance exchange. The transport string is
// decrypted with the shared passphrase, the contained request is handed
// to the key registry, and the new key plus expiry travels back under
// the same passphrase. This is the only exchange that never uses a
// station key, since a station asking for its first key has none.
func (s *Service) IssueKey(ctx context.Context, transport, ip string) (string, error) {
	plaintext, err := secure.Decrypt(transport, s.shared)
	if err != nil {
		return "", err
	}

	var req keyRequestPayload
	if err := json.Unmarshal([]byte(plaintext), &req); err != nil {
		return "", fmt.Errorf("%w: %v", secure.ErrMalformedInput, err)
	}
	if err := req.validate(); err != nil {
		return "", fmt.Errorf("%w: %v", secure.ErrMalformedInput, err)
	}

	key, err := s.keys.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:     req.StationID,
		MACAddress:    req.MACAddress,
		CurrentSecret: req.Key,
	})
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(keyResponsePayload{
		Key:       key.Secret,
		ExpiredAt: key.ExpiresAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal key response: %w", err)
	}

	out, err := secure.Encrypt(string(body), s.shared)
	if err != nil {
		return "", fmt.Errorf("encrypt key response: %w", err)
	}

	s.recordSync(ctx, req.StationID, ip)
	return out, nil
}

// resolve loads the station and its key, mapping a missing key to the
// not-acceptable family so handlers answer 406.
func (s *Service) resolve(ctx context.Context, stationID string) (*station.Station, *keyring.StationKey, error) {
	st, err := s.stations.Get(ctx, stationID)
	if err != nil {
		return nil, nil, err
	}

	key, err := s.keys.CurrentKey(ctx, stationID)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil, fmt.Errorf("%w: %w", keyring.ErrNotAcceptable, ErrNoKey)
		}
		return nil, nil, err
	}
	return st, key, nil
}

// seal marshals the payload, encrypts it with the station key and wraps
// it in metadata. The key flag is computed here from the key itself, so
// every fetch reports expiry the same way.
func (s *Service) seal(payload any, key *keyring.StationKey, need NeedUpdate) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	data, err := secure.Encrypt(string(body), key.Secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}

	need.Key = key.Expired(s.now())
	return &Envelope{
		Metadata: Metadata{NeedUpdate: need},
		Data:     data,
	}, nil
}

// recordSync is best effort: a failed timestamp write must not fail the
// sync response the station is waiting on.
func (s *Service) recordSync(ctx context.Context, stationID, ip string) {
	if err := s.stations.RecordSync(ctx, stationID, ip, s.now()); err != nil {
		s.logger.Error().Err(err).Str("station_id", stationID).Msg("failed to record sync")
	}
}
