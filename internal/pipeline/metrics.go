package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for ZIP code processing. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ZIPsProcessed     *prometheus.CounterVec
	StageFailures     *prometheus.CounterVec
	AdapterCandidates *prometheus.CounterVec
	AdapterErrors     *prometheus.CounterVec
	ProcessDuration   prometheus.Histogram
	BatchInFlight     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. Passing a
// fresh prometheus.NewRegistry keeps tests isolated from the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ZIPsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repingest_zips_processed_total",
				Help: "ZIP codes processed, by outcome (success, failed).",
			},
			[]string{"outcome"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repingest_stage_failures_total",
				Help: "Failed ZIP codes by the stage they failed from and the failure reason.",
			},
			[]string{"stage", "reason"},
		),
		AdapterCandidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repingest_adapter_candidates_total",
				Help: "Raw candidates returned by each source adapter.",
			},
			[]string{"source"},
		),
		AdapterErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "repingest_adapter_errors_total",
				Help: "Source adapter errors and warnings, by kind (error, warning).",
			},
			[]string{"source", "kind"},
		),
		ProcessDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "repingest_zip_duration_seconds",
				Help:    "Wall time to process one ZIP code.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		BatchInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "repingest_batch_in_flight",
				Help: "ZIP codes currently being processed.",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ZIPsProcessed,
			m.StageFailures,
			m.AdapterCandidates,
			m.AdapterErrors,
			m.ProcessDuration,
			m.BatchInFlight,
		)
	}
	return m
}

func (m *Metrics) observeAdapter(source string, candidates, warnings int, failed bool) {
	if m == nil {
		return
	}
	m.AdapterCandidates.WithLabelValues(source).Add(float64(candidates))
	if warnings > 0 {
		m.AdapterErrors.WithLabelValues(source, "warning").Add(float64(warnings))
	}
	if failed {
		m.AdapterErrors.WithLabelValues(source, "error").Inc()
	}
}

func (m *Metrics) observeResult(success bool, failedAt, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProcessDuration.Observe(elapsed.Seconds())
	if success {
		m.ZIPsProcessed.WithLabelValues("success").Inc()
		return
	}
	m.ZIPsProcessed.WithLabelValues("failed").Inc()
	m.StageFailures.WithLabelValues(failedAt, reason).Inc()
}

func (m *Metrics) inFlight(delta float64) {
	if m == nil {
		return
	}
	m.BatchInFlight.Add(delta)
}
