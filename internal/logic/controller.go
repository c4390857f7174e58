package logic

// Brake returns the solenoid drive for a snapshot.
// Either grip held releases the brake; no grip leaves it applied.
func Brake(s Snapshot) bool {
	return s.LeftTouch || s.RightTouch
}

// Mode returns the turn-signal case for a snapshot, in precedence order.
func Mode(s Snapshot) SignalMode {
	switch {
	case s.LeftTurn && s.RightTurn:
		return ModeBoth
	case s.LeftTurn:
		return ModeLeft
	case s.RightTurn:
		return ModeRight
	default:
		return ModeOff
	}
}

// Turn returns the LED values for a snapshot given the previous tick's outputs.
// A single held pad flips its LED once per tick. The phase is not reset when
// the mode changes: the LED continues from whatever it held last tick.
func Turn(s Snapshot, prev Actuators) (left, right bool) {
	switch Mode(s) {
	case ModeBoth:
		return true, true
	case ModeLeft:
		return !prev.LeftLED, false
	case ModeRight:
		return false, !prev.RightLED
	default:
		return false, false
	}
}

// Decide derives the new actuator values from the snapshot and previous outputs.
func Decide(s Snapshot, prev Actuators) Actuators {
	left, right := Turn(s, prev)
	return Actuators{
		Brake:    Brake(s),
		LeftLED:  left,
		RightLED: right,
	}
}

// Changes compares two consecutive states and returns one event per changed
// signal, ordered inputs first then outputs.
func Changes(prev, cur State) []Event {
	var events []Event
	add := func(label Label, before, after bool) {
		if before != after {
			events = append(events, Event{Label: label, Value: after})
		}
	}

	add(LabelLeftTouch, prev.Snapshot.LeftTouch, cur.Snapshot.LeftTouch)
	add(LabelRightTouch, prev.Snapshot.RightTouch, cur.Snapshot.RightTouch)
	add(LabelLeftTurn, prev.Snapshot.LeftTurn, cur.Snapshot.LeftTurn)
	add(LabelRightTurn, prev.Snapshot.RightTurn, cur.Snapshot.RightTurn)
	add(LabelBrake, prev.Actuators.Brake, cur.Actuators.Brake)
	add(LabelLeftLED, prev.Actuators.LeftLED, cur.Actuators.LeftLED)
	add(LabelRightLED, prev.Actuators.RightLED, cur.Actuators.RightLED)

	return events
}

// Step runs one tick of decision logic. It returns the next state and the
// changes relative to prev. The zero State is the all-false startup baseline,
// so a first tick with any signal true reports it.
func Step(prev State, s Snapshot) (State, []Event) {
	next := State{
		Snapshot:  s,
		Actuators: Decide(s, prev.Actuators),
	}
	return next, Changes(prev, next)
}
