package loop

import (
	"github.com/sweeney/smart-stroller/internal/gpio"
	"github.com/sweeney/smart-stroller/internal/logic"
)

// Sample reads the four sensor lines once. The reads are treated as
// simultaneous; a failing read aborts the sample.
func Sample(port gpio.Port) (logic.Snapshot, error) {
	var s logic.Snapshot
	var err error

	if s.LeftTouch, err = port.Read(gpio.LeftTouch); err != nil {
		return logic.Snapshot{}, err
	}
	if s.RightTouch, err = port.Read(gpio.RightTouch); err != nil {
		return logic.Snapshot{}, err
	}
	if s.LeftTurn, err = port.Read(gpio.LeftTurn); err != nil {
		return logic.Snapshot{}, err
	}
	if s.RightTurn, err = port.Read(gpio.RightTurn); err != nil {
		return logic.Snapshot{}, err
	}

	return s, nil
}

// Apply drives the actuator lines: solenoid first, then both LEDs.
func Apply(port gpio.Port, a logic.Actuators) error {
	if err := port.Write(gpio.Solenoid, a.Brake); err != nil {
		return err
	}
	if err := port.Write(gpio.LeftLED, a.LeftLED); err != nil {
		return err
	}
	return port.Write(gpio.RightLED, a.RightLED)
}
