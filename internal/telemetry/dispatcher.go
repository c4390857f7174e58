package telemetry

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultTimeout bounds a single delivery.
const DefaultTimeout = 5 * time.Second

// Dispatcher runs each delivery on its own goroutine.
// Deliveries may complete out of order. Failures are logged and never retried.
type Dispatcher struct {
	name     string
	deliver  DeliverFunc
	timeout  time.Duration
	onResult ResultFunc

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-delivery timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Dispatcher) {
		s.timeout = d
	}
}

// WithResultFunc registers an observer for delivery outcomes.
func WithResultFunc(fn ResultFunc) Option {
	return func(s *Dispatcher) {
		s.onResult = fn
	}
}

// NewDispatcher wraps a synchronous delivery function as a Sink.
func NewDispatcher(name string, deliver DeliverFunc, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		name:    name,
		deliver: deliver,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Emit starts delivery in the background.
func (d *Dispatcher) Emit(label string, value bool) <-chan error {
	done := make(chan error, 1)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(done)

		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		err := d.deliver(ctx, label, value)
		if err != nil {
			log.Printf("%s: deliver %s=%v: %v", d.name, label, value, err)
		} else {
			log.Printf("%s: posted %s=%v", d.name, label, value)
		}
		if d.onResult != nil {
			d.onResult(d.name, label, err)
		}
		done <- err
	}()

	return done
}

// Close waits for in-flight deliveries until ctx is done.
// Deliveries still running when ctx expires are abandoned, not cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
