// Package mqtt mirrors stroller telemetry to an MQTT broker with abstraction for testing.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sweeney/smart-stroller/internal/logic"
)

// Topic is the MQTT topic for signal change events.
const Topic = "stroller/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "stroller/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a signal change to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event, at time.Time) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "FAULT"
	Reason     string // e.g., "SIGTERM", "SIGINT", fault text
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Stroller EventPayload `json:"stroller"`
}

// EventPayload contains the signal change details.
type EventPayload struct {
	Timestamp string `json:"timestamp"`
	Signal    string `json:"signal"`
	Value     bool   `json:"value"`
}

// FormatPayload creates the JSON payload for a signal change.
func FormatPayload(event logic.Event, at time.Time) ([]byte, error) {
	payload := Payload{
		Stroller: EventPayload{
			Timestamp: at.UTC().Format(time.RFC3339),
			Signal:    string(event.Label),
			Value:     event.Value,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained last-will message the broker publishes if the
// controller drops off without a clean SHUTDOWN.
func WillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{
		System: SystemPayloadInner{Event: "OFFLINE", Reason: "LWT"},
	})
	return data
}

// DeliverFunc adapts a Publisher to the telemetry delivery signature so the
// MQTT mirror can run behind the same asynchronous dispatcher as the collector.
func DeliverFunc(p Publisher, now func() time.Time) func(ctx context.Context, label string, value bool) error {
	return func(ctx context.Context, label string, value bool) error {
		return p.Publish(logic.Event{Label: logic.Label(label), Value: value}, now())
	}
}
