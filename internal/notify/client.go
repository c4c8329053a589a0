// Package notify delivers best-effort station event notifications to an
// external collaborator over HTTP. Delivery is fire-and-forget: failures
// are reported to the caller for logging but never retried, and a
// circuit breaker stops a dead endpoint from being hammered for every
// station in a watchdog sweep.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Client errors.
var (
	// ErrDeliveryFailed wraps any failed delivery attempt.
	ErrDeliveryFailed = errors.New("notification delivery failed")

	// ErrCircuitOpen is returned while the breaker holds the endpoint
	// unreachable; no request is sent.
	ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrDeliveryFailed)
)

// Notification is the outbound event payload.
type Notification struct {
	ID         string    `json:"id"`
	StationID  string    `json:"stationId"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
	IP         string    `json:"ip"`
	MACAddress string    `json:"macAddress"`
	State      string    `json:"state"`
}

// ClientConfig holds configuration for the notification client.
type ClientConfig struct {
	// URL is the collaborator endpoint. Empty disables delivery.
	URL string

	// Timeout bounds each POST. Default: 10 seconds. There are no
	// retries on top: a timed-out notification is dropped.
	Timeout time.Duration
}

// Client posts notifications to the configured endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

// NewClient creates a new notification client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "event-notify",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
	})

	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Enabled reports whether a delivery endpoint is configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

// Send posts the notification. Any non-2xx status, transport error or
// timeout returns an error wrapping ErrDeliveryFailed; the caller logs
// it and moves on.
func (c *Client) Send(ctx context.Context, n Notification) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	_, err = c.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return ErrCircuitOpen
		}
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
