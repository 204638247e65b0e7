package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks calls to the external identity provider.
type Metrics struct {
	VerificationDuration prometheus.Histogram
	Verifications        *prometheus.CounterVec
}

// New creates and registers identity metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VerificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "survey_identity_verification_duration_seconds",
			Help:    "Duration of token verification calls to the identity provider",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_identity_verifications_total",
			Help: "Token verifications by outcome (ok, missing_token, invalid_audience, verification_failed)",
		}, []string{"outcome"}),
	}
}

// ObserveVerification records one verification call.
// Call with time.Now() taken before the outbound request.
func (m *Metrics) ObserveVerification(outcome string, start time.Time) {
	m.VerificationDuration.Observe(time.Since(start).Seconds())
	m.Verifications.WithLabelValues(outcome).Inc()
}
