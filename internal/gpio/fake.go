package gpio

import "errors"

// FakePort is a test double that returns scripted input values and records writes.
type FakePort struct {
	// Samples contains scripted input values.
	// Each group of len(Inputs) reads consumes the next sample.
	Samples []Sample

	// reads counts input reads since the last Reset.
	reads int

	// Outputs holds the last value written to each output line.
	Outputs map[Line]bool

	// Writes records every write in order.
	Writes []Write

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read().
	ReadError error

	// WriteError, if set, will be returned by Write().
	WriteError error
}

// Sample represents a single reading of the four sensor lines.
type Sample struct {
	LeftTouch  bool
	RightTouch bool
	LeftTurn   bool
	RightTurn  bool
}

// Value returns the sample's value for an input line.
func (s Sample) Value(l Line) bool {
	switch l {
	case LeftTouch:
		return s.LeftTouch
	case RightTouch:
		return s.RightTouch
	case LeftTurn:
		return s.LeftTurn
	case RightTurn:
		return s.RightTurn
	}
	return false
}

// Write is a recorded output write.
type Write struct {
	Line  Line
	Value bool
}

// NewFakePort creates a FakePort with the given samples.
func NewFakePort(samples []Sample) *FakePort {
	return &FakePort{
		Samples: samples,
		Outputs: make(map[Line]bool),
	}
}

// Read returns the scripted value for the line.
// If samples are exhausted, the last sample is returned repeatedly.
func (f *FakePort) Read(l Line) (bool, error) {
	if f.ReadError != nil {
		return false, fault("read", l, f.ReadError)
	}
	if len(f.Samples) == 0 {
		return false, fault("read", l, errors.New("no samples configured"))
	}
	if l.Direction() != Input {
		return false, fault("read", l, errors.New("not an input line"))
	}

	i := f.reads / len(Inputs)
	if i >= len(f.Samples) {
		i = len(f.Samples) - 1
	}
	f.reads++

	return f.Samples[i].Value(l), nil
}

// Write records the value.
func (f *FakePort) Write(l Line, value bool) error {
	if f.WriteError != nil {
		return fault("write", l, f.WriteError)
	}
	if l.Direction() != Output {
		return fault("write", l, errors.New("not an output line"))
	}
	if f.Outputs == nil {
		f.Outputs = make(map[Line]bool)
	}
	f.Outputs[l] = value
	f.Writes = append(f.Writes, Write{Line: l, Value: value})
	return nil
}

// Close drives outputs low and marks the port as closed.
func (f *FakePort) Close() error {
	for _, l := range Outputs {
		if f.Outputs == nil {
			f.Outputs = make(map[Line]bool)
		}
		f.Outputs[l] = false
	}
	f.Closed = true
	return nil
}

// Reset rewinds the port to the first sample and clears recorded writes.
func (f *FakePort) Reset() {
	f.reads = 0
	f.Writes = nil
	f.Outputs = make(map[Line]bool)
	f.Closed = false
}
