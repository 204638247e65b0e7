package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Export outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeFailed       = "failed"
)

// Metrics tracks CSV exports.
type Metrics struct {
	ExportDuration prometheus.Histogram
	Exports        *prometheus.CounterVec
	RowsExported   prometheus.Counter
	CorruptRows    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ExportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "survey_export_duration_seconds",
			Help:    "Duration of export requests including verification",
			Buckets: prometheus.DefBuckets,
		}),
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_exports_total",
			Help: "Export attempts by outcome (ok, unauthorized, forbidden, failed)",
		}, []string{"outcome"}),
		RowsExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_export_rows_total",
			Help: "Submission rows written to exports",
		}),
		CorruptRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_export_corrupt_rows_total",
			Help: "Rows whose stored answers could not be parsed as an object",
		}),
	}
}

func (m *Metrics) ObserveExport(outcome string, rows, corrupt int, start time.Time) {
	m.ExportDuration.Observe(time.Since(start).Seconds())
	m.Exports.WithLabelValues(outcome).Inc()
	m.RowsExported.Add(float64(rows))
	m.CorruptRows.Add(float64(corrupt))
}
