package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for autokernel runs.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Engine metrics
	symbolChanges  prometheus.Counter
	conflicts      prometheus.Counter
	rejectedValues prometheus.Counter
	modulesBuilt   prometheus.Counter

	// Detection metrics
	componentsDetected prometheus.Counter
	componentsMatched  *prometheus.CounterVec

	// Error metrics
	errorsByCode *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. A disabled configuration yields a
// no-op instance whose record methods are safe to call.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of runs started",
			},
			[]string{"command"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of runs completed",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of run execution in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		symbolChanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "symbol_changes_total",
				Help:      "Total number of symbol value changes applied",
			},
		),
		conflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assignment_conflicts_total",
				Help:      "Total number of conflicting assignments detected",
			},
		),
		rejectedValues: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_values_total",
				Help:      "Total number of value assignments rejected by the symbol table",
			},
		),
		modulesBuilt: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "modules_built_total",
				Help:      "Total number of option modules built",
			},
		),

		componentsDetected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "components_detected_total",
				Help:      "Total number of hardware components detected",
			},
		),
		componentsMatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "components_matched_total",
				Help:      "Total number of detected components by match outcome",
			},
			[]string{"outcome"},
		),

		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.symbolChanges,
		m.conflicts,
		m.rejectedValues,
		m.modulesBuilt,
		m.componentsDetected,
		m.componentsMatched,
		m.errorsByCode,
	)

	return m, nil
}

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(command string) {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(command).Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(status string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordChanges adds applied symbol changes.
func (m *Metrics) RecordChanges(count int) {
	if m.symbolChanges == nil {
		return
	}
	m.symbolChanges.Add(float64(count))
}

// RecordConflict records a conflicting assignment.
func (m *Metrics) RecordConflict() {
	if m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// RecordRejectedValues adds value assignments the symbol table refused.
func (m *Metrics) RecordRejectedValues(count int) {
	if m.rejectedValues == nil || count <= 0 {
		return
	}
	m.rejectedValues.Add(float64(count))
}

// RecordModulesBuilt adds built option modules.
func (m *Metrics) RecordModulesBuilt(count int) {
	if m.modulesBuilt == nil {
		return
	}
	m.modulesBuilt.Add(float64(count))
}

// RecordComponentsDetected adds detected hardware components.
func (m *Metrics) RecordComponentsDetected(count int) {
	if m.componentsDetected == nil {
		return
	}
	m.componentsDetected.Add(float64(count))
}

// RecordComponentMatch records one component's match outcome
// (matched, skipped).
func (m *Metrics) RecordComponentMatch(outcome string) {
	if m.componentsMatched == nil {
		return
	}
	m.componentsMatched.WithLabelValues(outcome).Inc()
}

// RecordError records an error by code.
func (m *Metrics) RecordError(code string) {
	if m.errorsByCode == nil || code == "" {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	return nil
}
