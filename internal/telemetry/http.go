package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// EventIDHeader carries a random id per delivery for collector-side correlation.
const EventIDHeader = "X-Event-Id"

// maxErrorBody caps how much of a failed response body is kept for logging.
const maxErrorBody = 256

// Collector posts events to the HTTP collector endpoint.
type Collector struct {
	url    string
	client *http.Client
}

// NewCollector creates a Collector for url. A nil client uses http.DefaultClient.
func NewCollector(url string, client *http.Client) *Collector {
	if client == nil {
		client = http.DefaultClient
	}
	return &Collector{url: url, client: client}
}

// URL returns the collector endpoint.
func (c *Collector) URL() string {
	return c.url
}

// FormatPayload creates the JSON body for a signal change.
func FormatPayload(label string, value bool) ([]byte, error) {
	return json.Marshal(Payload{ItemType: label, Text: value})
}

// Deliver posts one event and waits for the response.
func (c *Collector) Deliver(ctx context.Context, label string, value bool) error {
	body, err := FormatPayload(label, value)
	if err != nil {
		return fmt.Errorf("%w: format payload: %w", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventIDHeader, uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewHTTPSink creates an asynchronous sink posting to url.
func NewHTTPSink(url string, client *http.Client, opts ...Option) *Dispatcher {
	return NewDispatcher("telemetry", NewCollector(url, client).Deliver, opts...)
}
