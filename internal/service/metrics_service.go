package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API
// and the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bookingsCreated prometheus.Counter
	bookingConflict prometheus.Counter
	suggestions     *prometheus.CounterVec
	decisions       *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bookingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total presentation bookings committed",
	})

	bookingConflict := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Total booking attempts rejected for slot conflicts",
	})

	suggestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slot_suggestions_total",
		Help: "Total slot suggestion searches by outcome",
	}, []string{"outcome"})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reschedule_decisions_total",
		Help: "Total reschedule decisions by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, bookingsCreated, bookingConflict, suggestions, decisions, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bookingsCreated: bookingsCreated,
		bookingConflict: bookingConflict,
		suggestions:     suggestions,
		decisions:       decisions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordBookingCreated counts a committed booking.
func (m *MetricsService) RecordBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

// RecordBookingConflict counts a create rejected for a slot conflict.
func (m *MetricsService) RecordBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflict.Inc()
}

// RecordSuggestion counts a suggestion search outcome ("hit" or "miss").
func (m *MetricsService) RecordSuggestion(outcome string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(outcome).Inc()
}

// RecordRescheduleDecision counts a reschedule decision result.
func (m *MetricsService) RecordRescheduleDecision(result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(result).Inc()
}
