package keyring

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// secretLength is the number of random bytes behind a key. Hex encoding
// turns it into a 64-character printable token the station can store.
const secretLength = 32

// DefaultTTL is how long an issued key stays valid before the sync layer
// starts flagging it for rotation.
const DefaultTTL = 24 * time.Hour

// ServiceConfig holds configuration for the key registry service.
type ServiceConfig struct {
	Repo   Repository
	Logger zerolog.Logger
	// TTL is the validity window of issued keys. Defaults to DefaultTTL.
	TTL time.Duration
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service is the station key registry.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a new key registry service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:   cfg.Repo,
		logger: cfg.Logger,
		ttl:    ttl,
		now:    now,
	}
}

// IssueOrRotate validates a key request and, on success, replaces the
// station's key with a freshly generated one expiring after the
// configured TTL. Validation and write happen as one conditional
// repository operation; any violation leaves the station untouched.
func (s *Service) IssueOrRotate(ctx context.Context, req KeyRequest) (*StationKey, error) {
	mac, err := normalizeMAC(req.MACAddress)
	if err != nil {
		return nil, err
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate key secret: %w", err)
	}

	key := StationKey{
		StationID: req.StationID,
		Secret:    secret,
		ExpiresAt: s.now().Add(s.ttl),
	}

	err = s.repo.Replace(ctx, Replace{
		StationID:      req.StationID,
		MACAddress:     mac,
		ExpectedSecret: req.CurrentSecret,
		NewKey:         key,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("station_id", req.StationID).
		Time("expires_at", key.ExpiresAt).
		Bool("rotation", req.CurrentSecret != nil).
		Msg("station key issued")

	return &key, nil
}

// CurrentKey returns the station's key regardless of expiry. An expired
// key stays resolvable so the station can prove possession and rotate.
func (s *Service) CurrentKey(ctx context.Context, stationID string) (*StationKey, error) {
	return s.repo.CurrentKey(ctx, stationID)
}

// IsExpired reports whether the station's key has passed its expiry.
// Expiry is detected lazily here, not by any background job.
func (s *Service) IsExpired(ctx context.Context, stationID string) (bool, error) {
	key, err := s.repo.CurrentKey(ctx, stationID)
	if err != nil {
		return false, err
	}
	return key.Expired(s.now()), nil
}

// normalizeMAC canonicalizes the presented hardware address so that the
// same device always matches its binding regardless of case or
// separator style.
func normalizeMAC(raw string) (string, error) {
	hw, err := net.ParseMAC(raw)
	if err != nil {
		return "", ErrInvalidMAC
	}
	return strings.ToUpper(hw.String()), nil
}

func generateSecret() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
