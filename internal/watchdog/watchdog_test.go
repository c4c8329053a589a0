package watchdog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelsync/fuelsync/internal/changeflag"
	"github.com/fuelsync/fuelsync/internal/event"
	"github.com/fuelsync/fuelsync/internal/notify"
	"github.com/fuelsync/fuelsync/internal/station"
	"github.com/fuelsync/fuelsync/internal/watchdog"
)

type fixture struct {
	stations *station.Service
	events   *event.Service
	job      *watchdog.Job
	now      time.Time
}

func newFixture(t *testing.T, notifier *notify.Client) *fixture {
	t.Helper()

	fuels := station.NewInMemoryFuelRepository()
	stations := station.NewService(station.ServiceConfig{
		Repo:   station.NewInMemoryRepository(fuels),
		Fuels:  fuels,
		Flags:  changeflag.NewInMemoryCache(),
		Logger: zerolog.Nop(),
	})
	events := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	job := watchdog.NewJob(watchdog.JobConfig{
		Stations: stations,
		Events:   events,
		Notifier: notifier,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return now },
	})
	return &fixture{stations: stations, events: events, job: job, now: now}
}

func (f *fixture) createStation(t *testing.T, license *time.Time, lastSync *time.Time) *station.Station {
	t.Helper()
	created, err := f.stations.Create(context.Background(), station.CreateInput{
		CompanyID:        "cmp_1",
		Name:             "Depot",
		LicenseExpiresAt: license,
	})
	require.NoError(t, err)
	if lastSync != nil {
		require.NoError(t, f.stations.RecordSync(context.Background(), created.ID, "10.0.0.9", *lastSync))
	}
	return created
}

func kinds(t *testing.T, events *event.Service, stationID string) []event.Kind {
	t.Helper()
	list, err := events.ListByStation(context.Background(), stationID)
	require.NoError(t, err)
	var result []event.Kind
	for _, e := range list {
		result = append(result, e.Kind)
	}
	return result
}

func TestLicenseExactDayTriggers(t *testing.T) {
	tests := []struct {
		name     string
		daysAway int
		want     event.Kind
	}{
		{name: "expiring in 3 days", daysAway: 3, want: event.KindLicenseExpiring3d},
		{name: "expiring in 1 day", daysAway: 1, want: event.KindLicenseExpiring1d},
		{name: "expired today", daysAway: 0, want: event.KindLicenseExpired},
		{name: "blocked partial", daysAway: -5, want: event.KindLicenseBlockedPartial},
		{name: "blocked full", daysAway: -30, want: event.KindLicenseBlockedFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			license := f.now.AddDate(0, 0, tt.daysAway)
			s := f.createStation(t, &license, nil)

			result := f.job.Run(context.Background())
			assert.Equal(t, 1, result.EventsCreated)
			assert.Equal(t, []event.Kind{tt.want}, kinds(t, f.events, s.ID))
		})
	}
}

func TestLicenseNonMatchingDayIsSilent(t *testing.T) {
	f := newFixture(t, nil)

	// Exact-match thresholds: 2 days out triggers nothing.
	license := f.now.AddDate(0, 0, 2)
	s := f.createStation(t, &license, nil)

	result := f.job.Run(context.Background())
	assert.Equal(t, 0, result.EventsCreated)
	assert.Empty(t, kinds(t, f.events, s.ID))
}

func TestBlockingTriggersTransitionState(t *testing.T) {
	f := newFixture(t, nil)
	license := f.now.AddDate(0, 0, -5)
	s := f.createStation(t, &license, nil)

	f.job.Run(context.Background())

	got, err := f.stations.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, station.StateBlockedPartial, got.State)
}

func TestSyncMissingBuckets(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo int
		want    []event.Kind
	}{
		{name: "synced today", daysAgo: 0, want: nil},
		{name: "one day", daysAgo: 1, want: []event.Kind{event.KindSyncMissing1d}},
		{name: "two days", daysAgo: 2, want: []event.Kind{event.KindSyncMissing2d}},
		{name: "three days", daysAgo: 3, want: []event.Kind{event.KindSyncMissing3d}},
		{name: "ten days open-ended", daysAgo: 10, want: []event.Kind{event.KindSyncMissing3d}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			lastSync := f.now.AddDate(0, 0, -tt.daysAgo)
			s := f.createStation(t, nil, &lastSync)

			f.job.Run(context.Background())
			assert.Equal(t, tt.want, kinds(t, f.events, s.ID))
		})
	}
}

func TestSecondRunDeduplicates(t *testing.T) {
	f := newFixture(t, nil)
	license := f.now
	s := f.createStation(t, &license, nil)

	first := f.job.Run(context.Background())
	assert.Equal(t, 1, first.EventsCreated)

	// Without any acknowledgement in between, the same condition must
	// not produce a second event.
	second := f.job.Run(context.Background())
	assert.Equal(t, 0, second.EventsCreated)
	assert.Len(t, kinds(t, f.events, s.ID), 1)
}

func TestNotificationSent(t *testing.T) {
	var mu sync.Mutex
	var received []notify.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n notify.Notification
		require.NoError(t, json.NewDecoder(r.Body).Decode(&n))
		mu.Lock()
		received = append(received, n)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newFixture(t, notify.NewClient(notify.ClientConfig{URL: server.URL}))
	license := f.now
	lastSync := f.now.AddDate(0, 0, -1)
	s := f.createStation(t, &license, &lastSync)

	result := f.job.Run(context.Background())
	assert.Equal(t, 2, result.EventsCreated)
	assert.Equal(t, 0, result.NotifyFailures)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, s.ID, received[0].StationID)
	assert.Equal(t, "10.0.0.9", received[0].IP)
}

func TestNotificationFailureDoesNotRollBackEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := newFixture(t, notify.NewClient(notify.ClientConfig{URL: server.URL}))
	license := f.now
	s := f.createStation(t, &license, nil)

	result := f.job.Run(context.Background())
	assert.Equal(t, 1, result.EventsCreated)
	assert.Equal(t, 1, result.NotifyFailures)
	assert.Len(t, kinds(t, f.events, s.ID), 1, "event persists despite failed delivery")
}

func TestOneStationFailureDoesNotAbortSweep(t *testing.T) {
	f := newFixture(t, nil)

	license := f.now
	f.createStation(t, &license, nil)
	f.createStation(t, &license, nil)

	result := f.job.Run(context.Background())
	assert.Equal(t, 2, result.StationsChecked)
	assert.Equal(t, 2, result.EventsCreated)
}

// sweepBlockingRepo holds a sweep open inside List until released, so a
// test can start a second sweep while the first is mid-flight.
type sweepBlockingRepo struct {
	*station.InMemoryRepository
	entered chan struct{}
	release chan struct{}
}

func (r *sweepBlockingRepo) List(ctx context.Context, companyID string) ([]*station.Station, error) {
	select {
	case r.entered <- struct{}{}:
	default:
	}
	<-r.release
	return r.InMemoryRepository.List(ctx, companyID)
}

func TestOverlappingSweepIsSkipped(t *testing.T) {
	fuels := station.NewInMemoryFuelRepository()
	repo := &sweepBlockingRepo{
		InMemoryRepository: station.NewInMemoryRepository(fuels),
		entered:            make(chan struct{}, 1),
		release:            make(chan struct{}),
	}
	stations := station.NewService(station.ServiceConfig{
		Repo:   repo,
		Fuels:  fuels,
		Flags:  changeflag.NewInMemoryCache(),
		Logger: zerolog.Nop(),
	})
	events := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	job := watchdog.NewJob(watchdog.JobConfig{
		Stations: stations,
		Events:   events,
		Logger:   zerolog.Nop(),
	})

	done := make(chan *watchdog.Result, 1)
	go func() { done <- job.Run(context.Background()) }()

	// Wait until the first sweep is inside the station listing.
	<-repo.entered

	overlapping := job.Run(context.Background())
	assert.True(t, overlapping.Skipped, "concurrent sweep must be skipped, not run twice")
	assert.Equal(t, 0, overlapping.StationsChecked)

	close(repo.release)
	first := <-done
	assert.False(t, first.Skipped)

	// With the first sweep finished the guard is released again.
	next := job.Run(context.Background())
	assert.False(t, next.Skipped)
}

// failingStateRepo refuses state transitions, which makes any blocking
// trigger fail while plain event triggers keep working.
type failingStateRepo struct {
	*station.InMemoryRepository
}

func (r *failingStateRepo) SetState(context.Context, string, station.State) error {
	return errors.New("state write refused")
}

func TestTriggerFailureIsCountedAndIsolated(t *testing.T) {
	fuels := station.NewInMemoryFuelRepository()
	repo := &failingStateRepo{InMemoryRepository: station.NewInMemoryRepository(fuels)}
	stations := station.NewService(station.ServiceConfig{
		Repo:   repo,
		Fuels:  fuels,
		Flags:  changeflag.NewInMemoryCache(),
		Logger: zerolog.Nop(),
	})
	events := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job := watchdog.NewJob(watchdog.JobConfig{
		Stations: stations,
		Events:   events,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return now },
	})

	// The first station needs a state transition, which the repository
	// refuses; the second only records an event.
	blockedLicense := now.AddDate(0, 0, -5)
	blocked, err := stations.Create(context.Background(), station.CreateInput{
		CompanyID: "cmp_1", Name: "Blocked", LicenseExpiresAt: &blockedLicense,
	})
	require.NoError(t, err)
	expiringLicense := now.AddDate(0, 0, 3)
	expiring, err := stations.Create(context.Background(), station.CreateInput{
		CompanyID: "cmp_1", Name: "Expiring", LicenseExpiresAt: &expiringLicense,
	})
	require.NoError(t, err)

	result := job.Run(context.Background())
	assert.Equal(t, 2, result.StationsChecked)
	assert.Equal(t, 1, result.StationFailures)
	assert.Equal(t, 1, result.EventsCreated)

	assert.Empty(t, kinds(t, events, blocked.ID), "failed transition must not record its event")
	assert.Equal(t, []event.Kind{event.KindLicenseExpiring3d}, kinds(t, events, expiring.ID))
}
