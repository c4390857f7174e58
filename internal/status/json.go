package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/smart-stroller/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Inputs        InputsJSON     `json:"inputs"`
	Outputs       OutputsJSON    `json:"outputs"`
	Mode          string         `json:"mode"`
	Running       bool           `json:"running"`
	Ticks         uint64         `json:"ticks"`
	Fault         string         `json:"fault,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	Telemetry     TelemetryJSON  `json:"telemetry"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        map[string]int `json:"event_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// InputsJSON is the JSON representation of the last sensor snapshot.
type InputsJSON struct {
	LeftTouch  bool `json:"left_touch"`
	RightTouch bool `json:"right_touch"`
	LeftTurn   bool `json:"left_turn"`
	RightTurn  bool `json:"right_turn"`
}

// OutputsJSON is the JSON representation of the actuators.
type OutputsJSON struct {
	Brake    bool `json:"brake"`
	LeftLED  bool `json:"left_led"`
	RightLED bool `json:"right_led"`
}

// TelemetryJSON reports collector delivery state.
type TelemetryJSON struct {
	Collector string `json:"collector"`
	Failures  uint64 `json:"failures"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PeriodMs    int64  `json:"period_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Collector   string `json:"collector"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr"`
	Chip        string `json:"chip"`
}

func buildInner(snap Snapshot) StatusInner {
	in := snap.State.Snapshot
	out := snap.State.Actuators

	counts := make(map[string]int, len(logic.Labels))
	for _, l := range logic.Labels {
		counts[string(l)] = snap.Counts[l]
	}

	return StatusInner{
		Inputs: InputsJSON{
			LeftTouch:  in.LeftTouch,
			RightTouch: in.RightTouch,
			LeftTurn:   in.LeftTurn,
			RightTurn:  in.RightTurn,
		},
		Outputs: OutputsJSON{
			Brake:    out.Brake,
			LeftLED:  out.LeftLED,
			RightLED: out.RightLED,
		},
		Mode:          string(snap.Mode()),
		Running:       snap.Running,
		Ticks:         snap.Ticks,
		Fault:         snap.Fault,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Telemetry:     TelemetryJSON{Collector: snap.Config.Collector, Failures: snap.TelemetryFailures},
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        counts,
		Config: ConfigJSON{
			PeriodMs:    snap.Config.PeriodMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Collector:   snap.Config.Collector,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Chip:        snap.Config.Chip,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
