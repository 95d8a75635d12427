// Package metrics exposes Prometheus counters for the booking wizard.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/barberia/internal/booking"
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics is a booking.Observer that counts wizard activity.
type BookingMetrics struct {
	steps         *prometheus.CounterVec
	confirmations *prometheus.CounterVec
	validations   *prometheus.CounterVec
	timeouts      prometheus.Counter
	manualOffers  prometheus.Counter
	resets        prometheus.Counter
	timeToConfirm prometheus.Histogram
	breaker       *prometheus.GaugeVec

	mu           sync.Mutex
	watchStarted time.Time
}

// NewBookingMetrics creates the wizard metrics and registers them with reg.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberia",
			Subsystem: "wizard",
			Name:      "step_transitions_total",
			Help:      "Wizard step transitions by destination step",
		}, []string{"step"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberia",
			Subsystem: "wizard",
			Name:      "confirmations_total",
			Help:      "Confirmed bookings by detection source",
		}, []string{"source"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberia",
			Subsystem: "wizard",
			Name:      "validation_failures_total",
			Help:      "Refused forward jumps by target step",
		}, []string{"target"}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barberia",
			Subsystem: "watcher",
			Name:      "timeouts_total",
			Help:      "Watcher cycles that gave up without a confirmation",
		}),
		manualOffers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barberia",
			Subsystem: "watcher",
			Name:      "manual_offers_total",
			Help:      "Times the manual confirm control was shown",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barberia",
			Subsystem: "wizard",
			Name:      "resets_total",
			Help:      "Wizard resets",
		}),
		timeToConfirm: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "barberia",
			Subsystem: "watcher",
			Name:      "time_to_confirm_seconds",
			Help:      "Time from entering the calendar step to confirmation",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180, 300},
		}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "barberia",
			Subsystem: "calendar",
			Name:      "breaker_state",
			Help:      "1 for the current calendar circuit breaker state",
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.steps, m.confirmations, m.validations, m.timeouts,
		m.manualOffers, m.resets, m.timeToConfirm, m.breaker)
	return m
}

// Observe implements booking.Observer.
func (m *BookingMetrics) Observe(e booking.Event) {
	if m == nil {
		return
	}
	switch e.Type {
	case booking.EventStepChanged:
		m.steps.WithLabelValues(strconv.Itoa(int(e.Step))).Inc()
	case booking.EventWatcherStarted:
		m.mu.Lock()
		m.watchStarted = e.At
		m.mu.Unlock()
	case booking.EventConfirmed:
		m.confirmations.WithLabelValues(string(e.Source)).Inc()
		m.mu.Lock()
		if !m.watchStarted.IsZero() && !e.At.Before(m.watchStarted) {
			m.timeToConfirm.Observe(e.At.Sub(m.watchStarted).Seconds())
		}
		m.watchStarted = time.Time{}
		m.mu.Unlock()
	case booking.EventValidationFailed:
		m.validations.WithLabelValues(strconv.Itoa(int(e.Step))).Inc()
	case booking.EventWatcherTimedOut:
		m.timeouts.Inc()
	case booking.EventManualOffered:
		m.manualOffers.Inc()
	case booking.EventReset:
		m.resets.Inc()
	}
}

// ObserveBreaker records a calendar circuit breaker state change.
func (m *BookingMetrics) ObserveBreaker(from, to string) {
	if m == nil {
		return
	}
	m.breaker.WithLabelValues(from).Set(0)
	m.breaker.WithLabelValues(to).Set(1)
}
