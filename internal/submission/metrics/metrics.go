package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submit outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics tracks submission ledger writes.
type Metrics struct {
	SubmitDuration prometheus.Histogram
	Submissions    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "survey_submit_duration_seconds",
			Help:    "Duration of ledger submit operations",
			Buckets: prometheus.DefBuckets,
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_submissions_total",
			Help: "Submit attempts by outcome (accepted, duplicate, rejected, failed)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveSubmit(outcome string, start time.Time) {
	m.SubmitDuration.Observe(time.Since(start).Seconds())
	m.Submissions.WithLabelValues(outcome).Inc()
}
