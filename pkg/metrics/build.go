package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildMetrics records per-unit build outcomes for a pipeline run.
type BuildMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.GaugeVec
}

// NewBuildMetrics registers the unit build metrics on the provided registerer.
func NewBuildMetrics(reg prometheus.Registerer) *BuildMetrics {
	if reg == nil {
		return &BuildMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unit_build_duration_seconds",
		Help:    "Duration of transformation unit builds in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"unit", "layer"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unit_build_success",
		Help: "Successful transformation unit builds.",
	}, []string{"unit", "layer"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unit_build_failure",
		Help: "Failed transformation unit builds.",
	}, []string{"unit", "layer"})
	rows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unit_rows_materialized",
		Help: "Rows materialized by the most recent build of each persisted unit.",
	}, []string{"unit"})
	reg.MustRegister(duration, success, failure, rows)
	return &BuildMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rows:     rows,
	}
}

// ObserveDuration records the build duration for the named unit.
func (b *BuildMetrics) ObserveDuration(unit, layer string, duration time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(normalizeLabel(unit), normalizeLabel(layer)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named unit.
func (b *BuildMetrics) IncSuccess(unit, layer string) {
	if b == nil || b.success == nil {
		return
	}
	b.success.WithLabelValues(normalizeLabel(unit), normalizeLabel(layer)).Inc()
}

// IncFailure increments the failure counter for the named unit.
func (b *BuildMetrics) IncFailure(unit, layer string) {
	if b == nil || b.failure == nil {
		return
	}
	b.failure.WithLabelValues(normalizeLabel(unit), normalizeLabel(layer)).Inc()
}

// SetRowsMaterialized records how many rows the unit produced.
func (b *BuildMetrics) SetRowsMaterialized(unit string, count int64) {
	if b == nil || b.rows == nil {
		return
	}
	b.rows.WithLabelValues(normalizeLabel(unit)).Set(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
