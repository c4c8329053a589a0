package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Predefined service errors.
var (
	ErrAdminNotFound = errors.New("admin not found")

	// ErrInvalidCode covers every failed verification: unknown email,
	// expired code, wrong code. One error keeps the API from leaking
	// which part was wrong.
	ErrInvalidCode = errors.New("invalid login code")
)

// Service provides email one-time-code authentication.
type Service struct {
	admins  AdminRepository
	codes   CodeStore
	sender  EmailSender
	jwt     *JWTService
	logger  zerolog.Logger
	codeTTL time.Duration
	now     func() time.Time
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	Admins AdminRepository
	Codes  CodeStore
	Sender EmailSender
	JWT    *JWTService
	Logger zerolog.Logger
	// CodeTTL is the redemption window of issued codes. Defaults to
	// DefaultCodeTTL.
	CodeTTL time.Duration
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CodeTTL
	if ttl == 0 {
		ttl = DefaultCodeTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		admins:  cfg.Admins,
		codes:   cfg.Codes,
		sender:  cfg.Sender,
		jwt:     cfg.JWT,
		logger:  cfg.Logger,
		codeTTL: ttl,
		now:     now,
	}
}

// RequestCode issues a fresh login code for the admin and emails it.
// An unknown email returns ErrAdminNotFound; the handler maps it and
// every other failure onto the same neutral response so the endpoint
// cannot be used to probe which addresses exist.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if err := s.codes.Put(ctx, admin.Email, code, s.now().Add(s.codeTTL)); err != nil {
		return fmt.Errorf("storing login code: %w", err)
	}

	if err := s.sender.SendCode(ctx, admin.Email, code); err != nil {
		return fmt.Errorf("sending login code: %w", err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Msg("login code sent")
	return nil
}

// VerifyCode redeems a login code and returns an access token. The code
// is consumed on the first attempt, right or wrong: a mistyped code
// forces a fresh request rather than leaving a guessable one pending.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (*TokenResponse, error) {
	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	pending, err := s.codes.Consume(ctx, admin.Email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(pending), []byte(code)) != 1 {
		return nil, ErrInvalidCode
	}

	accessToken, expiresAt, err := s.jwt.GenerateAccessToken(admin)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Msg("admin signed in")

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
		Admin:       admin,
	}, nil
}

// ValidateAccessToken validates an access token and returns the admin ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.jwt.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.AdminID, nil
}

// GetAdmin retrieves an admin by ID.
func (s *Service) GetAdmin(ctx context.Context, adminID string) (*Admin, error) {
	return s.admins.FindByID(ctx, adminID)
}
