//go:build !linux

package gpio

import "errors"

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(chipName string, pins Pins) (*RealPort, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (p *RealPort) Read(l Line) (bool, error) {
	return false, fault("read", l, errors.New("not supported"))
}

// Write is not implemented on non-Linux platforms.
func (p *RealPort) Write(l Line, value bool) error {
	return fault("write", l, errors.New("not supported"))
}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error {
	return nil
}
