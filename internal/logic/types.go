// Package logic contains the pure decision logic for the stroller controller.
// This package has NO external dependencies (no GPIO, HTTP, MQTT, OS, or time.Sleep).
// Every step is a function of the previous State and the current Snapshot.
package logic

// Label identifies a tracked signal in telemetry events.
type Label string

// Labels use the collector's item type vocabulary.
const (
	LabelLeftTouch  Label = "left_touch_sensor"
	LabelRightTouch Label = "right_touch_sensor"
	LabelLeftTurn   Label = "left_turn_sensor"
	LabelRightTurn  Label = "right_turn_sensor"
	LabelBrake      Label = "brake"
	LabelLeftLED    Label = "left"
	LabelRightLED   Label = "right"
)

// Labels lists every tracked signal in reporting order.
var Labels = []Label{
	LabelLeftTouch,
	LabelRightTouch,
	LabelLeftTurn,
	LabelRightTurn,
	LabelBrake,
	LabelLeftLED,
	LabelRightLED,
}

// Snapshot is the set of input line values captured at the start of a tick.
type Snapshot struct {
	LeftTouch  bool // hand on left grip
	RightTouch bool // hand on right grip
	LeftTurn   bool // left turn pad touched
	RightTurn  bool
}

// Actuators holds the output line values.
type Actuators struct {
	// Brake is the solenoid drive: true = energized = brake released.
	// false is the fail-safe braking state.
	Brake    bool
	LeftLED  bool
	RightLED bool
}

// State is everything carried from one tick to the next.
type State struct {
	Snapshot  Snapshot
	Actuators Actuators
}

// Event is a single signal change to be reported.
type Event struct {
	Label Label
	Value bool
}

// SignalMode is the turn-signal case selected by the turn pads.
type SignalMode string

const (
	ModeOff   SignalMode = "OFF"
	ModeLeft  SignalMode = "LEFT_ONLY"
	ModeRight SignalMode = "RIGHT_ONLY"
	ModeBoth  SignalMode = "BRAKE_BOTH"
)

// EventCounts tracks the number of reported changes per label since startup.
type EventCounts map[Label]int

// Clone returns an independent copy.
func (c EventCounts) Clone() EventCounts {
	out := make(EventCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
