// Package loop runs the sample, decide, actuate and report pipeline once per tick.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/smart-stroller/internal/gpio"
	"github.com/sweeney/smart-stroller/internal/logic"
	"github.com/sweeney/smart-stroller/internal/metrics"
	"github.com/sweeney/smart-stroller/internal/telemetry"
)

// Result describes one completed tick.
type Result struct {
	Time   time.Time
	State  logic.State
	Events []logic.Event
	Ticks  uint64
	Counts logic.EventCounts
}

// Runner owns the process-wide control state. It is not safe for concurrent
// use: exactly one goroutine calls Tick or Run.
type Runner struct {
	port    gpio.Port
	sink    telemetry.Sink
	metrics *metrics.Metrics
	period  time.Duration
	now     func() time.Time

	// AfterTick, if set, is called after every successful tick.
	AfterTick func(Result)

	state    logic.State
	ticks    uint64
	counts   logic.EventCounts
	lastTick time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records tick, change, and fault metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithPeriod sets the expected tick period used to detect dropped ticks.
func WithPeriod(d time.Duration) Option {
	return func(r *Runner) {
		r.period = d
	}
}

// WithClock overrides the clock used to time ticks.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New creates a Runner starting from the all-false state.
func New(port gpio.Port, sink telemetry.Sink, opts ...Option) *Runner {
	r := &Runner{
		port:   port,
		sink:   sink,
		period: DefaultPeriod,
		now:    time.Now,
		counts: logic.EventCounts{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the state after the last completed tick.
func (r *Runner) State() logic.State {
	return r.state
}

// Ticks returns the number of completed ticks.
func (r *Runner) Ticks() uint64 {
	return r.ticks
}

// Counts returns a copy of the per-label change counts.
func (r *Runner) Counts() logic.EventCounts {
	return r.counts.Clone()
}

// Tick runs one pass: sample, decide, actuate, report. A hardware fault
// aborts the tick before any state is committed or reported.
func (r *Runner) Tick(at time.Time) (Result, error) {
	start := r.now()

	snap, err := Sample(r.port)
	if err != nil {
		r.metrics.ObserveFault()
		return Result{}, fmt.Errorf("sample: %w", err)
	}

	next, events := logic.Step(r.state, snap)

	if err := Apply(r.port, next.Actuators); err != nil {
		r.metrics.ObserveFault()
		return Result{}, fmt.Errorf("actuate: %w", err)
	}

	r.state = next
	r.ticks++

	for _, e := range events {
		r.counts[e.Label]++
		r.metrics.ObserveChange(string(e.Label), e.Value)
		log.Printf("event: %s=%v", e.Label, e.Value)
		// Fire-and-forget: the result channel is not awaited.
		r.sink.Emit(string(e.Label), e.Value)
	}

	r.recordLines()
	r.metrics.ObserveTick(r.now().Sub(start))

	res := Result{
		Time:   at,
		State:  r.state,
		Events: events,
		Ticks:  r.ticks,
		Counts: r.Counts(),
	}
	if r.AfterTick != nil {
		r.AfterTick(res)
	}
	return res, nil
}

func (r *Runner) recordLines() {
	if r.metrics == nil {
		return
	}
	in, out := r.state.Snapshot, r.state.Actuators
	r.metrics.SetLine(gpio.LeftTouch.String(), in.LeftTouch)
	r.metrics.SetLine(gpio.RightTouch.String(), in.RightTouch)
	r.metrics.SetLine(gpio.LeftTurn.String(), in.LeftTurn)
	r.metrics.SetLine(gpio.RightTurn.String(), in.RightTurn)
	r.metrics.SetLine(gpio.Solenoid.String(), out.Brake)
	r.metrics.SetLine(gpio.LeftLED.String(), out.LeftLED)
	r.metrics.SetLine(gpio.RightLED.String(), out.RightLED)
}

// Run ticks once per value received on ticks until ctx is cancelled or a
// hardware fault occurs. It returns nil on cancellation and the fault
// otherwise. Ticks are processed strictly one at a time.
func (r *Runner) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case t, ok := <-ticks:
			if !ok {
				return nil
			}

			if n := missed(r.lastTick, t, r.period); n > 0 {
				log.Printf("tick overran period, dropped %d tick(s)", n)
				r.metrics.AddSkipped(n)
			}
			r.lastTick = t

			if _, err := r.Tick(t); err != nil {
				if errors.Is(err, gpio.ErrHardwareFault) {
					log.Printf("hardware fault, stopping control loop: %v", err)
				}
				return err
			}
		}
	}
}
