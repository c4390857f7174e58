//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// RealPort drives actual hardware using the Linux GPIO character device.
type RealPort struct {
	chip  *gpiocdev.Chip
	lines map[Line]*gpiocdev.Line
	pins  Pins
}

// NewRealPort requests every harness line on the named chip. Inputs are
// pulled down; outputs start low so the brake is applied and the LEDs are off.
func NewRealPort(chipName string, pins Pins) (*RealPort, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPort{
		chip:  chip,
		lines: make(map[Line]*gpiocdev.Line),
		pins:  pins,
	}

	for _, l := range Inputs {
		line, err := chip.RequestLine(pins.Offset(l), gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l, pins.Offset(l), err)
		}
		p.lines[l] = line
	}

	for _, l := range Outputs {
		line, err := chip.RequestLine(pins.Offset(l), gpiocdev.AsOutput(0))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l, pins.Offset(l), err)
		}
		p.lines[l] = line
	}

	return p, nil
}

// Read returns the logical value of an input line. Active high.
func (p *RealPort) Read(l Line) (bool, error) {
	line, ok := p.lines[l]
	if !ok || l.Direction() != Input {
		return false, fault("read", l, fmt.Errorf("not an input line"))
	}
	v, err := line.Value()
	if err != nil {
		return false, fault("read", l, err)
	}
	return v != 0, nil
}

// Write drives an output line.
func (p *RealPort) Write(l Line, value bool) error {
	line, ok := p.lines[l]
	if !ok || l.Direction() != Output {
		return fault("write", l, fmt.Errorf("not an output line"))
	}
	v := 0
	if value {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fault("write", l, err)
	}
	return nil
}

// Close releases GPIO resources.
// Outputs are driven low first so a stopped controller leaves the brake
// applied, then every pin is returned to input with pull-down to match the
// Pi boot defaults.
func (p *RealPort) Close() error {
	var errs []error

	for _, l := range Outputs {
		line, ok := p.lines[l]
		if !ok {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("drive %s low: %w", l, err))
		}
	}

	for l, line := range p.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l, err))
		}
	}
	p.lines = nil

	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		p.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
