package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelsync/fuelsync/internal/notify"
)

func TestSendDeliversPayload(t *testing.T) {
	var received notify.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := notify.NewClient(notify.ClientConfig{URL: server.URL})

	err := client.Send(context.Background(), notify.Notification{
		ID:         "evt_1",
		StationID:  "stn_1",
		Type:       "LICENSE_EXPIRED",
		Message:    "license expired",
		CreatedAt:  time.Now(),
		IP:         "10.0.0.5",
		MACAddress: "AA:11:22:33:44:55",
		State:      "ACTIVE",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt_1", received.ID)
	assert.Equal(t, "stn_1", received.StationID)
	assert.Equal(t, "LICENSE_EXPIRED", received.Type)
}

func TestSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := notify.NewClient(notify.ClientConfig{URL: server.URL})

	err := client.Send(context.Background(), notify.Notification{ID: "evt_1"})
	assert.ErrorIs(t, err, notify.ErrDeliveryFailed)
}

func TestSendDisabledWithoutURL(t *testing.T) {
	client := notify.NewClient(notify.ClientConfig{})

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Send(context.Background(), notify.Notification{ID: "evt_1"}))
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := notify.NewClient(notify.ClientConfig{URL: server.URL})
	ctx := context.Background()

	// Trip the breaker.
	for i := 0; i < 6; i++ {
		_ = client.Send(ctx, notify.Notification{ID: "evt_1"})
	}

	callsBefore := calls
	err := client.Send(ctx, notify.Notification{ID: "evt_1"})
	assert.ErrorIs(t, err, notify.ErrCircuitOpen)
	assert.Equal(t, callsBefore, calls, "open circuit sends no request")
}
