package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCodeTTL is how long an issued login code stays redeemable.
const DefaultCodeTTL = 10 * time.Minute

// codeDigits is the length of a login code. Six digits is what the
// operators type from their inbox.
const codeDigits = 6

// ErrCodeNotFound is returned when no live code exists for the email,
// whether it was never issued, already consumed, or expired.
var ErrCodeNotFound = errors.New("login code not found")

// CodeStore holds pending login codes. Implementations must expire
// entries past their deadline; a consumed or expired code reads as
// absent.
type CodeStore interface {
	// Put stores the code for the email, replacing any pending one.
	Put(ctx context.Context, email, code string, expiresAt time.Time) error

	// Consume returns the pending code for the email and removes it as
	// one atomic step, so a code can never be redeemed twice.
	Consume(ctx context.Context, email string) (string, error)
}

// EmailSender delivers login codes to operators.
type EmailSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// pendingCode is one stored login code.
type pendingCode struct {
	code      string
	expiresAt time.Time
}

// InMemoryCodeStore is an in-memory implementation of CodeStore with
// lazy TTL eviction. Suitable for a single-instance deployment and for
// tests; a multi-instance deployment needs a shared store instead.
type InMemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]pendingCode
	now   func() time.Time
}

// NewInMemoryCodeStore creates a new in-memory code store.
func NewInMemoryCodeStore() *InMemoryCodeStore {
	return &InMemoryCodeStore{
		codes: make(map[string]pendingCode),
		now:   time.Now,
	}
}

// WithClock overrides the store's clock, for tests.
func (s *InMemoryCodeStore) WithClock(now func() time.Time) *InMemoryCodeStore {
	s.now = now
	return s
}

// Put stores the code for the email, replacing any pending one. Expired
// entries for other emails are swept on the way.
func (s *InMemoryCodeStore) Put(_ context.Context, email, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.codes {
		if now.After(v.expiresAt) {
			delete(s.codes, k)
		}
	}

	s.codes[email] = pendingCode{code: code, expiresAt: expiresAt}
	return nil
}

// Consume returns and removes the pending code for the email.
func (s *InMemoryCodeStore) Consume(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.codes[email]
	if !ok {
		return "", ErrCodeNotFound
	}
	delete(s.codes, email)

	if s.now().After(pending.expiresAt) {
		return "", ErrCodeNotFound
	}
	return pending.code, nil
}

var _ CodeStore = (*InMemoryCodeStore)(nil)

// LogSender is an EmailSender that writes codes to the log instead of
// sending mail. For local development only.
type LogSender struct {
	Logger zerolog.Logger
}

// SendCode logs the code.
func (s *LogSender) SendCode(_ context.Context, email, code string) error {
	s.Logger.Info().Str("email", email).Str("code", code).Msg("login code issued (dev sender)")
	return nil
}

// generateCode produces a zero-padded numeric login code.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating login code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
