// Package watchdog implements the scheduled license and sync staleness
// sweep: it evaluates every station against day thresholds, records
// durable events for crossed thresholds, and fires best-effort outbound
// notifications.
package watchdog

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fuelsync/fuelsync/internal/event"
	"github.com/fuelsync/fuelsync/internal/notify"
	"github.com/fuelsync/fuelsync/internal/station"
)

// JobConfig holds configuration for the watchdog job.
type JobConfig struct {
	Stations *station.Service
	Events   *event.Service
	Notifier *notify.Client
	Logger   zerolog.Logger
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Job is the watchdog sweep. One logical timer drives Run; a
// skip-if-running guard protects against overlapping sweeps, since a
// duplicate sweep would be harmless for events (dedup) but would double
// the outbound notifications.
type Job struct {
	stations *station.Service
	events   *event.Service
	notifier *notify.Client
	logger   zerolog.Logger
	now      func() time.Time

	running atomic.Bool
}

// NewJob creates a new watchdog job.
func NewJob(cfg JobConfig) *Job {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Job{
		stations: cfg.Stations,
		events:   cfg.Events,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Result summarizes one sweep.
type Result struct {
	Skipped         bool
	StationsChecked int
	EventsCreated   int
	NotifyFailures  int
	StationFailures int
}

// trigger pairs a detected condition with the event it produces.
type trigger struct {
	kind    event.Kind
	message string
	// newState is a non-empty licensing state transition to apply.
	newState station.State
}

// Run executes one sweep over the whole fleet. A failure on one station
// is logged and never aborts processing of the rest.
func (j *Job) Run(ctx context.Context) *Result {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn().Msg("watchdog sweep already running, skipping")
		return &Result{Skipped: true}
	}
	defer j.running.Store(false)

	result := &Result{}
	start := j.now()

	stations, err := j.stations.List(ctx, "")
	if err != nil {
		j.logger.Error().Err(err).Msg("watchdog failed to list stations")
		result.StationFailures++
		return result
	}

	for _, s := range stations {
		result.StationsChecked++
		j.checkStation(ctx, s, result)
	}

	j.logger.Info().
		Int("stations", result.StationsChecked).
		Int("events_created", result.EventsCreated).
		Int("notify_failures", result.NotifyFailures).
		Int("station_failures", result.StationFailures).
		Dur("duration", j.now().Sub(start)).
		Msg("watchdog sweep completed")
	return result
}

func (j *Job) checkStation(ctx context.Context, s *station.Station, result *Result) {
	now := j.now()

	var triggers []trigger
	if s.LicenseExpiresAt != nil {
		triggers = append(triggers, licenseTriggers(daysBetween(now, *s.LicenseExpiresAt))...)
	}
	if s.LastSyncAt != nil {
		triggers = append(triggers, syncTriggers(daysBetween(*s.LastSyncAt, now))...)
	}

	for _, tr := range triggers {
		if err := j.applyTrigger(ctx, s, tr, result); err != nil {
			// Per-event isolation: log and continue with the next
			// trigger for this station.
			result.StationFailures++
			j.logger.Error().Err(err).
				Str("station_id", s.ID).
				Str("kind", string(tr.kind)).
				Msg("watchdog trigger failed")
		}
	}
}

func (j *Job) applyTrigger(ctx context.Context, s *station.Station, tr trigger, result *Result) error {
	if tr.newState != "" && s.State != tr.newState {
		if err := j.stations.SetState(ctx, s.ID, tr.newState); err != nil {
			return fmt.Errorf("set state: %w", err)
		}
		s.State = tr.newState
	}

	created, err := j.events.Record(ctx, s.ID, tr.kind, tr.message)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	if created == nil {
		return nil
	}
	result.EventsCreated++

	// Best effort only: a failed notification is logged and dropped,
	// never retried, and never rolls back the event.
	if err := j.notify(ctx, s, created); err != nil {
		result.NotifyFailures++
		j.logger.Warn().Err(err).
			Str("station_id", s.ID).
			Str("event_id", created.ID).
			Msg("event notification not delivered")
	}
	return nil
}

func (j *Job) notify(ctx context.Context, s *station.Station, e *event.Event) error {
	if j.notifier == nil || !j.notifier.Enabled() {
		return nil
	}

	var ip, mac string
	if s.IPAddress != nil {
		ip = *s.IPAddress
	}
	if s.MACAddress != nil {
		mac = *s.MACAddress
	}

	return j.notifier.Send(ctx, notify.Notification{
		ID:         e.ID,
		StationID:  s.ID,
		Type:       string(e.Kind),
		Message:    e.Message,
		CreatedAt:  e.CreatedAt,
		IP:         ip,
		MACAddress: mac,
		State:      string(s.State),
	})
}

// licenseTriggers maps the calendar-day distance to license expiry onto
// events. These are exact-match, point-in-time triggers: a station
// evaluated only every few days can miss one. That is a known property
// of the alerting contract, kept as-is because downstream consumers
// rely on each license alert firing at most once.
func licenseTriggers(daysUntilExpiry int) []trigger {
	switch daysUntilExpiry {
	case 3:
		return []trigger{{kind: event.KindLicenseExpiring3d, message: "license expires in 3 days"}}
	case 1:
		return []trigger{{kind: event.KindLicenseExpiring1d, message: "license expires in 1 day"}}
	case 0:
		return []trigger{{kind: event.KindLicenseExpired, message: "license expired today"}}
	case -5:
		return []trigger{{
			kind:     event.KindLicenseBlockedPartial,
			message:  "license expired 5 days ago, station partially blocked",
			newState: station.StateBlockedPartial,
		}}
	case -30:
		return []trigger{{
			kind:     event.KindLicenseBlockedFull,
			message:  "license expired 30 days ago, station fully blocked",
			newState: station.StateBlockedFull,
		}}
	}
	return nil
}

// syncTriggers maps days since the last sync onto events. Unlike the
// license checks the final bucket is open-ended: a silent station keeps
// re-triggering sync-missing-3d each day once its previous alert is
// acknowledged.
func syncTriggers(daysSinceSync int) []trigger {
	switch {
	case daysSinceSync == 1:
		return []trigger{{kind: event.KindSyncMissing1d, message: "station has not synchronized for 1 day"}}
	case daysSinceSync == 2:
		return []trigger{{kind: event.KindSyncMissing2d, message: "station has not synchronized for 2 days"}}
	case daysSinceSync >= 3:
		return []trigger{{kind: event.KindSyncMissing3d, message: "station has not synchronized for 3 or more days"}}
	}
	return nil
}

// daysBetween returns the whole calendar-day difference from a to b in
// UTC, positive when b is later.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
