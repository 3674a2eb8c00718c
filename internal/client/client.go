// Package client is the HTTP client for the flight-logging ingestion API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Guinness96/drone-sim/core"
	"github.com/Guinness96/drone-sim/model"
)

// ErrTransport indicates a failure reaching the ingestion API or a
// non-success response from it. Submission-path transport errors are
// recovered by the driver; only StartFlight treats them as fatal.
var ErrTransport = errors.New("ingestion transport error")

// Client talks to the ingestion REST API. It implements core.FlightRecorder.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New constructs a client for the API at baseURL. The default underlying
// client carries a 10s timeout so no single call can stall the simulation
// loop indefinitely.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartFlight opens a new flight session and returns its ID.
func (c *Client) StartFlight(ctx context.Context) (int, error) {
	var resp struct {
		FlightID int `json:"flight_id"`
	}
	if err := c.post(ctx, "/api/flights/start", nil, &resp); err != nil {
		return 0, err
	}
	return resp.FlightID, nil
}

// SubmitReading logs one telemetry reading under the flight.
func (c *Client) SubmitReading(ctx context.Context, flightID int, r model.TelemetryReading) (core.SubmissionResult, error) {
	var resp struct {
		PositionID int  `json:"position_id"`
		ReadingID  int  `json:"reading_id"`
		IsAnomaly  bool `json:"is_anomaly"`
	}
	path := fmt.Sprintf("/api/flights/%d/log_data", flightID)
	if err := c.post(ctx, path, r, &resp); err != nil {
		return core.SubmissionResult{}, err
	}
	return core.SubmissionResult{
		PositionID: resp.PositionID,
		ReadingID:  resp.ReadingID,
		IsAnomaly:  resp.IsAnomaly,
	}, nil
}

// EndFlight closes the flight session.
func (c *Client) EndFlight(ctx context.Context, flightID int) error {
	return c.post(ctx, fmt.Sprintf("/api/flights/%d/end", flightID), nil, nil)
}

// post issues a JSON POST and decodes the response into out when non-nil.
// Any network failure or non-2xx status wraps ErrTransport.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request for %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrTransport, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response from %s: %v", ErrTransport, path, err)
	}
	return nil
}
