// Package metrics holds the prometheus collectors of the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	BookingTransitions *prometheus.CounterVec
	SideEffects        *prometheus.CounterVec
	RemindersSent      *prometheus.CounterVec
	DispatchDropped    prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BookingTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_transitions_total",
				Help: "Appointment lifecycle operations by outcome",
			},
			[]string{"operation", "result"},
		),
		SideEffects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_side_effects_total",
				Help: "Best-effort side effects executed by the dispatcher",
			},
			[]string{"event", "handler", "result"},
		),
		RemindersSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_sent_total",
				Help: "Appointment reminders dispatched",
			},
			[]string{"window"},
		),
		DispatchDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_dropped_total",
				Help: "Intents dropped because the dispatch queue was full or closed",
			},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
	m.registry.MustRegister(
		m.BookingTransitions,
		m.SideEffects,
		m.RemindersSent,
		m.DispatchDropped,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Transition counts one lifecycle operation.
func (m *Metrics) Transition(operation string, err error) {
	if m == nil {
		return
	}
	m.BookingTransitions.WithLabelValues(operation, result(err)).Inc()
}

// SideEffect counts one dispatched handler run.
func (m *Metrics) SideEffect(event, handler string, err error) {
	if m == nil {
		return
	}
	m.SideEffects.WithLabelValues(event, handler, result(err)).Inc()
}

// Reminder counts one reminder intent for window ("24h" or "1h").
func (m *Metrics) Reminder(window string) {
	if m == nil {
		return
	}
	m.RemindersSent.WithLabelValues(window).Inc()
}

// Dropped counts one intent the dispatcher could not enqueue.
func (m *Metrics) Dropped() {
	if m == nil {
		return
	}
	m.DispatchDropped.Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
