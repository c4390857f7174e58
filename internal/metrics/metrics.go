// Package metrics exposes controller metrics in Prometheus format.
//
// All methods are safe on a nil *Metrics so callers can run without metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stroller"

// Metrics holds the controller's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Ticks        prometheus.Counter
	SkippedTicks prometheus.Counter
	TickDuration prometheus.Histogram
	Faults       prometheus.Counter
	Changes      *prometheus.CounterVec
	Deliveries   *prometheus.CounterVec
	Lines        *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Control loop ticks completed.",
		}),
		SkippedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks dropped because the previous tick overran the period.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Time spent sampling, actuating and reporting in one tick.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		Faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hardware_faults_total",
			Help:      "Line read or write failures.",
		}),
		Changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_changes_total",
			Help:      "Reported signal changes by label and new value.",
		}, []string{"signal", "value"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_deliveries_total",
			Help:      "Telemetry deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		Lines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "line_value",
			Help:      "Current value of each harness line (1 = high).",
		}, []string{"line"}),
	}

	m.Registry.MustRegister(
		m.Ticks,
		m.SkippedTicks,
		m.TickDuration,
		m.Faults,
		m.Changes,
		m.Deliveries,
		m.Lines,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveTick records a completed tick.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.TickDuration.Observe(d.Seconds())
}

// AddSkipped records ticks dropped by the scheduler.
func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedTicks.Add(float64(n))
}

// ObserveFault records a hardware fault.
func (m *Metrics) ObserveFault() {
	if m == nil {
		return
	}
	m.Faults.Inc()
}

// ObserveChange records a reported signal change.
func (m *Metrics) ObserveChange(signal string, value bool) {
	if m == nil {
		return
	}
	m.Changes.WithLabelValues(signal, boolLabel(value)).Inc()
}

// SetLine records the current value of a line.
func (m *Metrics) SetLine(line string, value bool) {
	if m == nil {
		return
	}
	v := 0.0
	if value {
		v = 1
	}
	m.Lines.WithLabelValues(line).Set(v)
}

// ObserveDelivery records a telemetry outcome. It matches telemetry.ResultFunc.
func (m *Metrics) ObserveDelivery(sink, label string, err error) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(sink, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
