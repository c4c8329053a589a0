package event_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelsync/fuelsync/internal/event"
)

func TestRecordAndList(t *testing.T) {
	service := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	ctx := context.Background()

	created, err := service.Record(ctx, "stn_1", event.KindLicenseExpired, "license expired")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.False(t, created.Viewed)

	events, err := service.ListByStation(ctx, "stn_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.KindLicenseExpired, events[0].Kind)
}

func TestRecordDedupWhileUnviewed(t *testing.T) {
	service := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	ctx := context.Background()

	first, err := service.Record(ctx, "stn_1", event.KindLicenseExpired, "license expired")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Same condition detected again while the first alert is still
	// unacknowledged: suppressed.
	second, err := service.Record(ctx, "stn_1", event.KindLicenseExpired, "license expired")
	require.NoError(t, err)
	assert.Nil(t, second)

	events, err := service.ListByStation(ctx, "stn_1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordAfterViewedCreatesAgain(t *testing.T) {
	service := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	ctx := context.Background()

	first, err := service.Record(ctx, "stn_1", event.KindSyncMissing3d, "no sync for 3 days")
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, service.MarkViewed(ctx, first.ID))

	second, err := service.Record(ctx, "stn_1", event.KindSyncMissing3d, "no sync for 4 days")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestDedupIsPerKindAndStation(t *testing.T) {
	service := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	ctx := context.Background()

	created, err := service.Record(ctx, "stn_1", event.KindLicenseExpired, "m")
	require.NoError(t, err)
	require.NotNil(t, created)

	// A different kind for the same station is not suppressed.
	other, err := service.Record(ctx, "stn_1", event.KindSyncMissing1d, "m")
	require.NoError(t, err)
	assert.NotNil(t, other)

	// Same kind for another station is not suppressed.
	otherStation, err := service.Record(ctx, "stn_2", event.KindLicenseExpired, "m")
	require.NoError(t, err)
	assert.NotNil(t, otherStation)
}

func TestMarkViewedUnknown(t *testing.T) {
	service := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())

	err := service.MarkViewed(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, event.ErrEventNotFound)
}

func TestListUnviewed(t *testing.T) {
	service := event.NewService(event.NewInMemoryRepository(), zerolog.Nop())
	ctx := context.Background()

	first, err := service.Record(ctx, "stn_1", event.KindLicenseExpiring3d, "m")
	require.NoError(t, err)
	_, err = service.Record(ctx, "stn_2", event.KindSyncMissing2d, "m")
	require.NoError(t, err)

	require.NoError(t, service.MarkViewed(ctx, first.ID))

	unviewed, err := service.ListUnviewed(ctx)
	require.NoError(t, err)
	require.Len(t, unviewed, 1)
	assert.Equal(t, "stn_2", unviewed[0].StationID)
}
