// Package telemetry delivers signal changes to the remote collector.
//
// Delivery is fire-and-forget: Emit returns immediately with a channel that
// receives the delivery outcome. Callers in the control loop ignore it.
package telemetry

import (
	"context"
	"errors"
	"fmt"
)

// ErrDelivery is wrapped by every failed delivery.
var ErrDelivery = errors.New("telemetry delivery failed")

// Sink accepts a (label, value) pair and delivers it asynchronously.
type Sink interface {
	// Emit starts delivery and returns without waiting for it.
	// The returned channel receives exactly one value (nil on success) and is then closed.
	Emit(label string, value bool) <-chan error
}

// DeliverFunc performs one synchronous delivery.
type DeliverFunc func(ctx context.Context, label string, value bool) error

// Payload is the collector's JSON body.
type Payload struct {
	ItemType string `json:"itemtype"`
	Text     bool   `json:"text"`
}

// StatusError reports a non-2xx collector response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("collector returned status %d", e.Code)
	}
	return fmt.Sprintf("collector returned status %d: %s", e.Code, e.Body)
}

// Unwrap lets errors.Is match ErrDelivery.
func (e *StatusError) Unwrap() error {
	return ErrDelivery
}

// ResultFunc observes each delivery outcome. err is nil on success.
type ResultFunc func(sink, label string, err error)
