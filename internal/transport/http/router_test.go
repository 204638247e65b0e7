package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-gateway/internal/platform/metrics"
	"survey-gateway/pkg/testutil"
)

type stubReadiness struct{ err error }

func (s stubReadiness) Health(context.Context) error { return s.err }

type panicRoute struct{}

func (panicRoute) Register(r chi.Router) {
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func newTestRouter(readiness ReadinessChecker) http.Handler {
	router, _ := newTestRouterWithMetrics(readiness)
	return router
}

func newTestRouterWithMetrics(readiness ReadinessChecker) (http.Handler, *metrics.Metrics) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	return NewRouter(Deps{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:        m,
		Gatherer:       reg,
		AllowedOrigins: []string{"*"},
		Readiness:      readiness,
		Handlers:       []Registrar{panicRoute{}},
	}), m
}

func TestHealthAndReadiness(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(nil), testutil.NewRequestWithBody(t, http.MethodGet, "/healthz", ""))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("ready when the database answers", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(stubReadiness{}), testutil.NewRequestWithBody(t, http.MethodGet, "/readyz", ""))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("unavailable when the database does not", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(stubReadiness{err: errors.New("closed")}), testutil.NewRequestWithBody(t, http.MethodGet, "/readyz", ""))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	router := newTestRouter(nil)
	testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/healthz", ""))

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/metrics", ""))

	testutil.AssertStatus(t, rr, http.StatusOK)
	require.True(t, strings.Contains(rr.Body.String(), "survey_http_requests_total"), rr.Body.String())
}

func TestPanicsBecomeInternalErrors(t *testing.T) {
	rr := testutil.DoRequest(newTestRouter(nil), testutil.NewRequestWithBody(t, http.MethodGet, "/boom", ""))

	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
	testutil.AssertErrorCode(t, rr, "internal_error")
}

func TestCORSPreflight(t *testing.T) {
	req := testutil.NewRequestWithBody(t, http.MethodOptions, "/submit", "")
	req.Header.Set("Origin", "https://survey.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rr := testutil.DoRequest(newTestRouter(nil), req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoutes(t *testing.T) {
	router := newTestRouter(nil)

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, "/nope", ""))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodDelete, "/healthz", ""))
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestUnknownPathsShareOneMetricSeries(t *testing.T) {
	router, m := newTestRouterWithMetrics(nil)

	const n = 25
	for i := range n {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodGet, fmt.Sprintf("/scan/%d", i), ""))
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	}

	assert.Equal(t, 1, promtest.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, float64(n), promtest.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", http.MethodGet, "404")))
}
