// Package gpio provides digital line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// ErrHardwareFault is wrapped by every line read or write failure.
// A fault is not recoverable inside the control loop.
var ErrHardwareFault = errors.New("hardware fault")

// Line is a logical line of the stroller harness.
type Line int

const (
	LeftTouch Line = iota
	RightTouch
	LeftTurn
	RightTurn
	LeftLED
	RightLED
	Solenoid
)

// Inputs lists the sensor lines in sampling order.
var Inputs = []Line{LeftTouch, RightTouch, LeftTurn, RightTurn}

// Outputs lists the actuator lines.
var Outputs = []Line{LeftLED, RightLED, Solenoid}

func (l Line) String() string {
	switch l {
	case LeftTouch:
		return "left_touch"
	case RightTouch:
		return "right_touch"
	case LeftTurn:
		return "left_turn"
	case RightTurn:
		return "right_turn"
	case LeftLED:
		return "left_led"
	case RightLED:
		return "right_led"
	case Solenoid:
		return "solenoid"
	}
	return fmt.Sprintf("line(%d)", int(l))
}

// Direction is the configured direction of a line.
type Direction int

const (
	Input Direction = iota
	Output
)

// Direction returns whether the line is a sensor input or an actuator output.
func (l Line) Direction() Direction {
	if l >= LeftLED {
		return Output
	}
	return Input
}

// Port reads and writes logical line values.
type Port interface {
	// Read returns the current value of an input line.
	Read(line Line) (bool, error)

	// Write drives an output line.
	Write(line Line, value bool) error

	// Close drives outputs to their fail-safe level and releases resources.
	Close() error
}

// Pins maps logical lines to chip offsets (BCM numbering on a Pi).
type Pins struct {
	LeftTouch  int
	RightTouch int
	LeftTurn   int
	RightTurn  int
	LeftLED    int
	RightLED   int
	Solenoid   int
}

// DefaultPins matches the reference stroller wiring.
var DefaultPins = Pins{
	LeftTouch:  7,
	RightTouch: 6,
	LeftTurn:   8,
	RightTurn:  5,
	LeftLED:    3,
	RightLED:   4,
	Solenoid:   2,
}

// Offset returns the chip offset wired to a line.
func (p Pins) Offset(l Line) int {
	switch l {
	case LeftTouch:
		return p.LeftTouch
	case RightTouch:
		return p.RightTouch
	case LeftTurn:
		return p.LeftTurn
	case RightTurn:
		return p.RightTurn
	case LeftLED:
		return p.LeftLED
	case RightLED:
		return p.RightLED
	case Solenoid:
		return p.Solenoid
	}
	return -1
}

// Validate rejects negative offsets and lines sharing an offset.
func (p Pins) Validate() error {
	seen := make(map[int]Line)
	for _, l := range append(append([]Line{}, Inputs...), Outputs...) {
		off := p.Offset(l)
		if off < 0 {
			return fmt.Errorf("pin for %s: invalid offset %d", l, off)
		}
		if other, ok := seen[off]; ok {
			return fmt.Errorf("pin %d assigned to both %s and %s", off, other, l)
		}
		seen[off] = l
	}
	return nil
}

func fault(op string, l Line, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrHardwareFault, op, l, err)
}
