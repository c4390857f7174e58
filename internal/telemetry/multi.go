package telemetry

import "errors"

// Multi fans each event out to several sinks.
type Multi []Sink

// Emit dispatches to every sink. The returned channel yields the joined
// errors once all sinks have reported.
func (m Multi) Emit(label string, value bool) <-chan error {
	results := make([]<-chan error, 0, len(m))
	for _, s := range m {
		results = append(results, s.Emit(label, value))
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		var errs []error
		for _, r := range results {
			if err := <-r; err != nil {
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()
	return done
}
