package syncproto_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelsync/fuelsync/internal/changeflag"
	"github.com/fuelsync/fuelsync/internal/keyring"
	"github.com/fuelsync/fuelsync/internal/secure"
	"github.com/fuelsync/fuelsync/internal/station"
	"github.com/fuelsync/fuelsync/internal/syncproto"
)

const sharedPassphrase = "factory-shared-passphrase"

type fixture struct {
	stations *station.Service
	keys     *keyring.Service
	keyRepo  *keyring.InMemoryRepository
	flags    changeflag.Cache
	svc      *syncproto.Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	fuels := station.NewInMemoryFuelRepository()
	f.flags = changeflag.NewInMemoryCache()
	f.stations = station.NewService(station.ServiceConfig{
		Repo:   station.NewInMemoryRepository(fuels),
		Fuels:  fuels,
		Flags:  f.flags,
		Logger: zerolog.Nop(),
	})

	f.keyRepo = keyring.NewInMemoryRepository()
	f.keys = keyring.NewService(keyring.ServiceConfig{
		Repo:   f.keyRepo,
		Logger: zerolog.Nop(),
		Now:    clock,
	})

	f.svc = syncproto.NewService(syncproto.ServiceConfig{
		Stations:         f.stations,
		Keys:             f.keys,
		Flags:            f.flags,
		Logger:           zerolog.Nop(),
		SharedPassphrase: sharedPassphrase,
		Now:              clock,
	})
	return f
}

// provision creates a station and issues its first key, the way a real
// device would before its first sync poll.
func (f *fixture) provision(t *testing.T) (*station.Station, *keyring.StationKey) {
	t.Helper()

	s, err := f.stations.Create(context.Background(), station.CreateInput{
		CompanyID: "cmp_1",
		Name:      "Depot North",
	})
	require.NoError(t, err)

	f.keyRepo.AddStation(s.ID, nil)
	key, err := f.keys.IssueOrRotate(context.Background(), keyring.KeyRequest{
		StationID:  s.ID,
		MACAddress: "aa:11:22:33:44:55",
	})
	require.NoError(t, err)
	return s, key
}

func decryptPayload[T any](t *testing.T, env *syncproto.Envelope, secret string) T {
	t.Helper()

	plaintext, err := secure.Decrypt(env.Data, secret)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal([]byte(plaintext), &out))
	return out
}

func TestFetchOptionsRoundTrip(t *testing.T) {
	f := newFixture(t)
	s, key := f.provision(t)

	opts := station.Options{
		PistolCount:    4,
		ProcessorCount: 2,
		ShiftNotify:    true,
		AllowDiscount:  true,
		SeasonCount:    1,
		CurrencyType:   "UAH",
		CurrencyValue:  42.5,
	}
	require.NoError(t, f.stations.UpdateOptions(context.Background(), s.ID, opts))

	env, err := f.svc.FetchOptions(context.Background(), s.ID, "10.0.0.7")
	require.NoError(t, err)

	got := decryptPayload[map[string]any](t, env, key.Secret)
	assert.Equal(t, float64(4), got["pistolCount"])
	assert.Equal(t, float64(2), got["processorCount"])
	assert.Equal(t, true, got["shiftNotify"])
	assert.Equal(t, true, got["allowDiscount"])
	assert.Equal(t, "UAH", got["currencyType"])
	assert.Equal(t, 42.5, got["currencyValue"])
}

func TestFetchOptionsClearsOptionsFlagOnly(t *testing.T) {
	f := newFixture(t)
	s, _ := f.provision(t)
	ctx := context.Background()

	require.NoError(t, f.flags.MarkChanged(ctx, s.ID, changeflag.KindOptions))
	require.NoError(t, f.flags.MarkChanged(ctx, s.ID, changeflag.KindFuels))

	env, err := f.svc.FetchOptions(ctx, s.ID, "10.0.0.7")
	require.NoError(t, err)

	// Pending fuel change is reported but not consumed.
	assert.True(t, env.Metadata.NeedUpdate.Fuels)
	assert.False(t, env.Metadata.NeedUpdate.Options)

	options, err := f.flags.Peek(ctx, s.ID, changeflag.KindOptions)
	require.NoError(t, err)
	assert.False(t, options, "options flag consumed by the read")

	fuels, err := f.flags.Peek(ctx, s.ID, changeflag.KindFuels)
	require.NoError(t, err)
	assert.True(t, fuels, "fuels flag untouched")
}

func TestFetchFuelsOrderedAndConsumesFlag(t *testing.T) {
	f := newFixture(t)
	s, key := f.provision(t)
	ctx := context.Background()

	diesel, err := f.stations.CreateFuel(ctx, "Diesel", 1.82)
	require.NoError(t, err)
	petrol, err := f.stations.CreateFuel(ctx, "Petrol 95", 1.64)
	require.NoError(t, err)
	require.NoError(t, f.stations.AssignFuels(ctx, s.ID, []string{petrol.ID, diesel.ID}))

	env, err := f.svc.FetchFuels(ctx, s.ID, "10.0.0.7")
	require.NoError(t, err)

	got := decryptPayload[[]map[string]string](t, env, key.Secret)
	require.Len(t, got, 2)
	assert.Equal(t, "Petrol 95", got[0]["name"])
	assert.Equal(t, "Diesel", got[1]["name"])
	_, hasPrice := got[0]["price"]
	assert.False(t, hasPrice, "pricing never leaves the back office")

	// AssignFuels raised the flag; the fetch consumed it.
	fuels, err := f.flags.Peek(ctx, s.ID, changeflag.KindFuels)
	require.NoError(t, err)
	assert.False(t, fuels)
}

func TestFetchLicenseWindowAndPeeks(t *testing.T) {
	f := newFixture(t)
	s, key := f.provision(t)
	ctx := context.Background()

	require.NoError(t, f.flags.MarkChanged(ctx, s.ID, changeflag.KindOptions))

	env, err := f.svc.FetchLicense(ctx, s.ID, "10.0.0.7")
	require.NoError(t, err)

	assert.True(t, env.Metadata.NeedUpdate.Options)
	assert.False(t, env.Metadata.NeedUpdate.Fuels)

	got := decryptPayload[struct {
		ValidUntil time.Time `json:"validUntil"`
		ServerTime time.Time `json:"serverTime"`
	}](t, env, key.Secret)
	assert.Equal(t, f.now, got.ServerTime)
	assert.Equal(t, f.now.Add(syncproto.DefaultLicenseGrace), got.ValidUntil)

	// License reads never consume flags.
	options, err := f.flags.Peek(ctx, s.ID, changeflag.KindOptions)
	require.NoError(t, err)
	assert.True(t, options)
}

func TestFetchRecordsSync(t *testing.T) {
	f := newFixture(t)
	s, _ := f.provision(t)

	_, err := f.svc.FetchOptions(context.Background(), s.ID, "10.9.8.7")
	require.NoError(t, err)

	got, err := f.stations.Get(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncAt)
	assert.Equal(t, f.now, got.LastSyncAt.UTC())
	require.NotNil(t, got.IPAddress)
	assert.Equal(t, "10.9.8.7", *got.IPAddress)
}

func TestFetchUnknownStation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FetchOptions(context.Background(), "stn_missing", "10.0.0.7")
	assert.ErrorIs(t, err, station.ErrStationNotFound)
}

func TestFetchWithoutKeyNotAcceptable(t *testing.T) {
	f := newFixture(t)
	s, err := f.stations.Create(context.Background(), station.CreateInput{
		CompanyID: "cmp_1",
		Name:      "Unprovisioned",
	})
	require.NoError(t, err)
	f.keyRepo.AddStation(s.ID, nil)

	_, err = f.svc.FetchOptions(context.Background(), s.ID, "10.0.0.7")
	assert.ErrorIs(t, err, keyring.ErrNotAcceptable)
	assert.ErrorIs(t, err, syncproto.ErrNoKey)
}

func TestExpiredKeyStillDecryptsAndFlagsRotation(t *testing.T) {
	f := newFixture(t)
	s, key := f.provision(t)

	// Jump past the key TTL: the payload still decrypts with the old
	// key, and metadata tells the device to rotate.
	f.now = f.now.Add(keyring.DefaultTTL + time.Hour)

	env, err := f.svc.FetchOptions(context.Background(), s.ID, "10.0.0.7")
	require.NoError(t, err)
	assert.True(t, env.Metadata.NeedUpdate.Key)

	_, err = secure.Decrypt(env.Data, key.Secret)
	assert.NoError(t, err)
}

func TestIssueKeyRoundTrip(t *testing.T) {
	f := newFixture(t)
	s, err := f.stations.Create(context.Background(), station.CreateInput{
		CompanyID: "cmp_1",
		Name:      "Fresh Device",
	})
	require.NoError(t, err)
	f.keyRepo.AddStation(s.ID, nil)

	body, err := json.Marshal(map[string]string{
		"stationId":  s.ID,
		"macAddress": "aa-11-22-33-44-55",
	})
	require.NoError(t, err)
	transport, err := secure.Encrypt(string(body), sharedPassphrase)
	require.NoError(t, err)

	out, err := f.svc.IssueKey(context.Background(), transport, "10.0.0.7")
	require.NoError(t, err)

	plaintext, err := secure.Decrypt(out, sharedPassphrase)
	require.NoError(t, err)
	var resp struct {
		Key       string    `json:"key"`
		ExpiredAt time.Time `json:"expiredAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(plaintext), &resp))
	assert.Len(t, resp.Key, 64)
	assert.Equal(t, f.now.Add(keyring.DefaultTTL), resp.ExpiredAt)

	// The issued key is live: a subsequent fetch encrypts with it.
	env, err := f.svc.FetchOptions(context.Background(), s.ID, "10.0.0.7")
	require.NoError(t, err)
	_, err = secure.Decrypt(env.Data, resp.Key)
	assert.NoError(t, err)
}

func TestIssueKeyRotation(t *testing.T) {
	f := newFixture(t)
	s, first := f.provision(t)

	body, err := json.Marshal(map[string]string{
		"stationId":  s.ID,
		"macAddress": "AA:11:22:33:44:55",
		"key":        first.Secret,
	})
	require.NoError(t, err)
	transport, err := secure.Encrypt(string(body), sharedPassphrase)
	require.NoError(t, err)

	out, err := f.svc.IssueKey(context.Background(), transport, "10.0.0.7")
	require.NoError(t, err)

	plaintext, err := secure.Decrypt(out, sharedPassphrase)
	require.NoError(t, err)
	var resp struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(plaintext), &resp))
	assert.NotEqual(t, first.Secret, resp.Key)
}

func TestIssueKeyRejectsWrongMAC(t *testing.T) {
	f := newFixture(t)
	s, first := f.provision(t)

	body, err := json.Marshal(map[string]string{
		"stationId":  s.ID,
		"macAddress": "ff:00:00:00:00:01",
		"key":        first.Secret,
	})
	require.NoError(t, err)
	transport, err := secure.Encrypt(string(body), sharedPassphrase)
	require.NoError(t, err)

	_, err = f.svc.IssueKey(context.Background(), transport, "10.0.0.7")
	assert.ErrorIs(t, err, keyring.ErrMACMismatch)
}

func TestIssueKeyMalformedTransport(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.IssueKey(context.Background(), "not-a-transport-string", "10.0.0.7")
	assert.ErrorIs(t, err, secure.ErrMalformedInput)
}

func TestIssueKeyWrongPassphrase(t *testing.T) {
	f := newFixture(t)

	transport, err := secure.Encrypt(`{"stationId":"stn_1","macAddress":"aa:11:22:33:44:55"}`, "some-other-passphrase")
	require.NoError(t, err)

	_, err = f.svc.IssueKey(context.Background(), transport, "10.0.0.7")
	assert.Error(t, err)
}

func TestIssueKeyMissingFields(t *testing.T) {
	f := newFixture(t)

	transport, err := secure.Encrypt(`{"stationId":"stn_1"}`, sharedPassphrase)
	require.NoError(t, err)

	_, err = f.svc.IssueKey(context.Background(), transport, "10.0.0.7")
	assert.ErrorIs(t, err, secure.ErrMalformedInput)
}
