// Package status provides a thread-safe status tracker for the stroller daemon.
// It is written by the control loop and read by HTTP handlers and system events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/smart-stroller/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PeriodMs    int64
	HeartbeatMs int64
	Collector   string
	Broker      string // empty = MQTT mirror disabled
	HTTPAddr    string
	Chip        string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State             logic.State
	Running           bool // at least one tick completed
	Ticks             uint64
	Counts            logic.EventCounts
	TelemetryFailures uint64
	Fault             string
	StartTime         time.Time
	Now               time.Time
	MQTTConnected     bool
	Network           *NetworkInfo
	Config            Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Mode returns the turn-signal case for the last sampled inputs.
func (s Snapshot) Mode() logic.SignalMode {
	return logic.Mode(s.State.Snapshot)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Counts:    logic.EventCounts{},
		},
	}
}

// Update sets the latest state, tick count, and event counts.
// Called from the control loop after every tick.
func (t *Tracker) Update(state logic.State, ticks uint64, counts logic.EventCounts) {
	counts = counts.Clone()
	t.mu.Lock()
	t.snap.State = state
	t.snap.Running = ticks > 0
	t.snap.Ticks = ticks
	t.snap.Counts = counts
	t.mu.Unlock()
}

// AddTelemetryFailure counts a failed delivery. Safe to call from delivery goroutines.
func (t *Tracker) AddTelemetryFailure() {
	t.mu.Lock()
	t.snap.TelemetryFailures++
	t.mu.Unlock()
}

// SetFault records the hardware fault that stopped the loop.
func (t *Tracker) SetFault(err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.Fault = err.Error()
	} else {
		t.snap.Fault = ""
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
