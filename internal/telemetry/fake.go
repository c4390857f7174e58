package telemetry

import "sync"

// Emitted is a recorded Emit call.
type Emitted struct {
	Label string
	Value bool
}

// FakeSink records emitted events for test assertions.
type FakeSink struct {
	mu sync.Mutex

	// Events contains every emitted event in call order.
	Events []Emitted

	// Err, if set, is delivered on every result channel.
	Err error
}

// NewFakeSink creates a FakeSink for testing.
func NewFakeSink() *FakeSink {
	return &FakeSink{}
}

// Emit records the event and resolves immediately.
func (f *FakeSink) Emit(label string, value bool) <-chan error {
	f.mu.Lock()
	f.Events = append(f.Events, Emitted{Label: label, Value: value})
	err := f.Err
	f.mu.Unlock()

	done := make(chan error, 1)
	done <- err
	close(done)
	return done
}

// Recorded returns a copy of the emitted events.
func (f *FakeSink) Recorded() []Emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Emitted(nil), f.Events...)
}

// Reset clears recorded events.
func (f *FakeSink) Reset() {
	f.mu.Lock()
	f.Events = nil
	f.Err = nil
	f.mu.Unlock()
}
