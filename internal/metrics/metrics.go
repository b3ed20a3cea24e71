package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "budget_advisor"

// Plan outcomes.
const (
	OutcomeGenerated = "generated"
	OutcomeFallback  = "fallback"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	requests                *prometheus.CounterVec
	requestDuration         *prometheus.HistogramVec
	plans                   *prometheus.CounterVec
	fallbackPersistFailures prometheus.Counter
	providerDuration        *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests"},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		plans: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "budget_plans_total", Help: "Budget plans returned by outcome"},
			[]string{"outcome"},
		),
		fallbackPersistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "budget_fallback_persist_failures_total", Help: "Fallback plans that could not be saved"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Duration of generation provider calls",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.plans, m.fallbackPersistFailures, m.providerDuration)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) PlanReturned(outcome string) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FallbackPersistFailed() {
	if m == nil {
		return
	}
	m.fallbackPersistFailures.Inc()
}

func (m *Metrics) ObserveProvider(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if success {
		outcome = "ok"
	}
	m.providerDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
