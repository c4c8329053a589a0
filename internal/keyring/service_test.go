package keyring_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelsync/fuelsync/internal/keyring"
)

func newService(t *testing.T, repo *keyring.InMemoryRepository, ttl time.Duration) *keyring.Service {
	t.Helper()
	return keyring.NewService(keyring.ServiceConfig{
		Repo:   repo,
		Logger: zerolog.Nop(),
		TTL:    ttl,
	})
}

func TestIssueFirstKeyBindsMAC(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)
	service := newService(t, repo, time.Hour)
	ctx := context.Background()

	key, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "aa:11:22:33:44:55",
	})
	require.NoError(t, err)

	assert.Equal(t, "stn_1", key.StationID)
	assert.Len(t, key.Secret, 64)
	assert.WithinDuration(t, time.Now().Add(time.Hour), key.ExpiresAt, 2*time.Second)

	bound := repo.BoundMAC("stn_1")
	require.NotNil(t, bound)
	assert.Equal(t, "AA:11:22:33:44:55", *bound, "MAC is canonicalized on binding")
}

func TestIssueUnknownStation(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	service := newService(t, repo, time.Hour)

	_, err := service.IssueOrRotate(context.Background(), keyring.KeyRequest{
		StationID:  "stn_missing",
		MACAddress: "AA:11:22:33:44:55",
	})
	assert.ErrorIs(t, err, keyring.ErrStationNotFound)
}

func TestIssueRejectsDifferentMAC(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)
	service := newService(t, repo, time.Hour)
	ctx := context.Background()

	key, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "AA:11:22:33:44:55",
	})
	require.NoError(t, err)

	_, err = service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "CC:DD:00:00:00:00",
	})
	assert.ErrorIs(t, err, keyring.ErrNotAcceptable)
	assert.ErrorIs(t, err, keyring.ErrMACMismatch)

	// Binding and key unchanged after the rejected request.
	bound := repo.BoundMAC("stn_1")
	require.NotNil(t, bound)
	assert.Equal(t, "AA:11:22:33:44:55", *bound)

	current, err := service.CurrentKey(ctx, "stn_1")
	require.NoError(t, err)
	assert.Equal(t, key.Secret, current.Secret)
}

func TestRotationRequiresProof(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)
	service := newService(t, repo, time.Hour)
	ctx := context.Background()

	first, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "AA:11:22:33:44:55",
	})
	require.NoError(t, err)

	// Re-issuing without presenting the current key is a hijack attempt.
	_, err = service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "AA:11:22:33:44:55",
	})
	assert.ErrorIs(t, err, keyring.ErrKeyAlreadyIssued)

	// Wrong proof is rejected.
	wrong := "not-the-key"
	_, err = service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:     "stn_1",
		MACAddress:    "AA:11:22:33:44:55",
		CurrentSecret: &wrong,
	})
	assert.ErrorIs(t, err, keyring.ErrKeyProofMismatch)

	// Correct proof rotates to a new secret with a later expiry.
	second, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:     "stn_1",
		MACAddress:    "AA:11:22:33:44:55",
		CurrentSecret: &first.Secret,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)
	assert.False(t, second.ExpiresAt.Before(first.ExpiresAt))
}

func TestIssueRotateRejectScenario(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_s", nil)
	service := newService(t, repo, time.Hour)
	ctx := context.Background()

	k1, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_s",
		MACAddress: "AA:11:22:33:44:55",
	})
	require.NoError(t, err)

	k2, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:     "stn_s",
		MACAddress:    "AA:11:22:33:44:55",
		CurrentSecret: &k1.Secret,
	})
	require.NoError(t, err)
	assert.NotEqual(t, k1.Secret, k2.Secret)

	_, err = service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_s",
		MACAddress: "FF:00:00:00:00:00",
	})
	assert.ErrorIs(t, err, keyring.ErrNotAcceptable)
}

func TestIssueInvalidMAC(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)
	service := newService(t, repo, time.Hour)

	_, err := service.IssueOrRotate(context.Background(), keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "not-a-mac",
	})
	assert.ErrorIs(t, err, keyring.ErrInvalidMAC)
}

func TestMACNormalization(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)
	service := newService(t, repo, time.Hour)
	ctx := context.Background()

	first, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "aa-11-22-33-44-55",
	})
	require.NoError(t, err)

	// Same hardware address in a different notation still matches.
	_, err = service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:     "stn_1",
		MACAddress:    "AA:11:22:33:44:55",
		CurrentSecret: &first.Secret,
	})
	assert.NoError(t, err)
}

func TestIsExpiredLazyDetection(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)

	clock := time.Now()
	service := keyring.NewService(keyring.ServiceConfig{
		Repo:   repo,
		Logger: zerolog.Nop(),
		TTL:    time.Second,
		Now:    func() time.Time { return clock },
	})
	ctx := context.Background()

	key, err := service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:  "stn_1",
		MACAddress: "AA:11:22:33:44:55",
	})
	require.NoError(t, err)

	expired, err := service.IsExpired(ctx, "stn_1")
	require.NoError(t, err)
	assert.False(t, expired)

	// No expiry job runs; advancing the clock past the TTL is enough.
	clock = clock.Add(2 * time.Second)

	expired, err = service.IsExpired(ctx, "stn_1")
	require.NoError(t, err)
	assert.True(t, expired)

	// The expired key stays resolvable and still works as proof.
	_, err = service.IssueOrRotate(ctx, keyring.KeyRequest{
		StationID:     "stn_1",
		MACAddress:    "AA:11:22:33:44:55",
		CurrentSecret: &key.Secret,
	})
	assert.NoError(t, err)
}

func TestIsExpiredNoKey(t *testing.T) {
	repo := keyring.NewInMemoryRepository()
	repo.AddStation("stn_1", nil)
	service := newService(t, repo, time.Hour)

	_, err := service.IsExpired(context.Background(), "stn_1")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}
