package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config labels every metric with the emitting service and environment.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics captures lifecycle and dispatch health signals.
type Metrics struct {
	transitions      *prometheus.CounterVec
	transitionErrors *prometheus.CounterVec
	dispatchAttempts *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	dispatchCost     prometheus.Counter
	workerBatch      *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// WithConfig returns the singleton metrics registry using config labels.
func WithConfig(cfg Config) *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return metrics
}

// ResetForTest resets the metrics singleton for tests.
func ResetForTest() {
	metricsOnce = sync.Once{}
	metrics = nil
}

// WithRegisterer builds an isolated metrics set on the given registry,
// bypassing the singleton. Mainly for tests.
func WithRegisterer(registerer prometheus.Registerer, cfg Config) *Metrics {
	return newMetrics(registerer, cfg)
}

func newMetrics(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "paquetes"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paquetes_package_transitions_total",
		Help:        "Package status transitions by from and to state.",
		ConstLabels: constLabels,
	}, []string{"from", "to"})
	transitionErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paquetes_package_transition_errors_total",
		Help:        "Rejected package transitions by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	dispatchAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paquetes_notification_attempts_total",
		Help:        "Notification send attempts by channel and outcome.",
		ConstLabels: constLabels,
	}, []string{"channel", "outcome"})
	dispatchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "paquetes_notification_send_seconds",
		Help:        "Gateway send latency per channel.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"channel"})
	dispatchCost := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "paquetes_notification_cost_cents_total",
		Help:        "Accumulated provider cost in minor currency units.",
		ConstLabels: constLabels,
	})
	workerBatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "paquetes_dispatch_worker_batch_total",
		Help:        "Dispatch worker batch items by result.",
		ConstLabels: constLabels,
	}, []string{"result"})

	registerer.MustRegister(
		transitions,
		transitionErrors,
		dispatchAttempts,
		dispatchDuration,
		dispatchCost,
		workerBatch,
	)

	return &Metrics{
		transitions:      transitions,
		transitionErrors: transitionErrors,
		dispatchAttempts: dispatchAttempts,
		dispatchDuration: dispatchDuration,
		dispatchCost:     dispatchCost,
		workerBatch:      workerBatch,
	}
}

// RecordTransition increments the transition counter.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordTransitionError increments rejected transitions by reason.
func (m *Metrics) RecordTransitionError(reason string) {
	if m == nil || m.transitionErrors == nil {
		return
	}
	m.transitionErrors.WithLabelValues(reason).Inc()
}

// RecordDispatch records one send attempt and its latency.
func (m *Metrics) RecordDispatch(channel, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if m.dispatchAttempts != nil {
		m.dispatchAttempts.WithLabelValues(channel, outcome).Inc()
	}
	if m.dispatchDuration != nil {
		m.dispatchDuration.WithLabelValues(channel).Observe(duration.Seconds())
	}
}

// AddDispatchCost accumulates provider cost in minor units.
func (m *Metrics) AddDispatchCost(cents int64) {
	if m == nil || m.dispatchCost == nil || cents <= 0 {
		return
	}
	m.dispatchCost.Add(float64(cents))
}

// AddWorkerBatch counts processed worker batch items by result.
func (m *Metrics) AddWorkerBatch(result string, count int) {
	if m == nil || m.workerBatch == nil || count <= 0 {
		return
	}
	m.workerBatch.WithLabelValues(result).Add(float64(count))
}
