package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/smart-stroller/internal/logic"
)

func TestFormatPayload(t *testing.T) {
	event := logic.Event{Label: logic.LabelBrake, Value: true}

	payload, err := FormatPayload(event, time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Stroller.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Stroller.Timestamp)
	}
	if parsed.Stroller.Signal != "brake" {
		t.Errorf("unexpected signal: %s", parsed.Stroller.Signal)
	}
	if !parsed.Stroller.Value {
		t.Error("expected value true")
	}
}

func TestFormatPayloadExactJSON(t *testing.T) {
	event := logic.Event{Label: logic.LabelLeftLED, Value: false}

	payload, err := FormatPayload(event, time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"stroller":{"timestamp":"2026-02-03T10:30:45Z","signal":"left","value":false}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatPayloadAllLabels(t *testing.T) {
	for _, label := range logic.Labels {
		t.Run(string(label), func(t *testing.T) {
			payload, err := FormatPayload(logic.Event{Label: label, Value: true}, time.Now())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Stroller.Signal != string(label) {
				t.Errorf("signal: got %s, want %s", parsed.Stroller.Signal, label)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("PST", -8*60*60)
	at := time.Date(2026, 2, 3, 2, 0, 0, 0, loc)

	payload, err := FormatPayload(logic.Event{Label: logic.LabelBrake}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Stroller.Timestamp != "2026-02-03T10:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Stroller.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "stroller/events" {
		t.Errorf("unexpected topic: got %s", Topic)
	}
	if TopicSystem != "stroller/system" {
		t.Errorf("unexpected system topic: got %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 19, 5, 51, 0, time.UTC),
		Event:     "STARTUP",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	system := parsed["system"].(map[string]interface{})
	if _, exists := system["reason"]; exists {
		t.Error("reason field should be omitted when empty")
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	var parsed SystemPayload
	if err := json.Unmarshal(WillPayload(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.System.Event != "OFFLINE" {
		t.Errorf("event: got %q, want OFFLINE", parsed.System.Event)
	}
	if parsed.System.Reason != "LWT" {
		t.Errorf("reason: got %q, want LWT", parsed.System.Reason)
	}
}

func TestDeliverFunc(t *testing.T) {
	f := NewFakePublisher()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	deliver := DeliverFunc(f, func() time.Time { return at })

	if err := deliver(context.Background(), "right", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0] != (logic.Event{Label: logic.LabelRightLED, Value: true}) {
		t.Errorf("unexpected event: %+v", f.Events[0])
	}

	f.PublishError = errors.New("broker unavailable")
	if err := deliver(context.Background(), "right", false); err == nil {
		t.Error("expected publish error to propagate")
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	err := f.Publish(logic.Event{Label: logic.LabelLeftTouch, Value: true}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Label != logic.LabelLeftTouch {
		t.Errorf("unexpected event label: %s", f.Events[0].Label)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish(logic.Event{Label: logic.LabelBrake}, time.Now()); err == nil {
		t.Error("expected error")
	}

	if len(f.Events) != 0 {
		t.Errorf("expected no events recorded on error, got %d", len(f.Events))
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGINT",
		Retained:  true,
	}
	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.SystemEvents))
	}
	if !f.SystemEvents[0].Retained {
		t.Error("expected retained flag to be recorded")
	}
	if len(f.SystemPayloads) != 1 {
		t.Fatalf("expected 1 system payload, got %d", len(f.SystemPayloads))
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected error")
	}
	if len(f.SystemEvents) != 0 {
		t.Errorf("expected no system events recorded on error, got %d", len(f.SystemEvents))
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(logic.Event{Label: logic.LabelBrake, Value: true}, time.Now())
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true
	f.PublishError = errors.New("error")

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 {
		t.Error("events should be cleared")
	}
	if len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("system events should be cleared")
	}
	if f.Closed {
		t.Error("closed should be reset")
	}
	if f.IsConnected() {
		t.Error("connected should be reset")
	}
	if f.PublishError != nil {
		t.Error("error should be cleared")
	}
}
