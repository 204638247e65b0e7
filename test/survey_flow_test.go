package test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exportHandler "survey-gateway/internal/export/handler"
	exportService "survey-gateway/internal/export/service"
	"survey-gateway/internal/identity"
	"survey-gateway/internal/platform/config"
	"survey-gateway/internal/platform/metrics"
	"survey-gateway/internal/platform/storage"
	"survey-gateway/internal/policy"
	submissionHandler "survey-gateway/internal/submission/handler"
	submissionService "survey-gateway/internal/submission/service"
	submissionStore "survey-gateway/internal/submission/store"
	httptransport "survey-gateway/internal/transport/http"
	"survey-gateway/pkg/testutil"
)

const clientID = "survey-client.apps.googleusercontent.com"

func newGateway(t *testing.T, provider *testutil.TokenInfoServer) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := storage.Open(ctx, config.Database{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "survey.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := submissionStore.NewSQL(ctx, db)
	require.NoError(t, err)

	verifier := identity.NewTokenInfoVerifier(provider.URL, clientID, identity.WithLogger(logger))
	reg := prometheus.NewRegistry()

	return httptransport.NewRouter(httptransport.Deps{
		Logger:         logger,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		AllowedOrigins: []string{"*"},
		Readiness:      db,
		Handlers: []httptransport.Registrar{
			submissionHandler.New(verifier, submissionService.New(store, submissionService.WithLogger(logger)), logger),
			exportHandler.New(exportService.New(verifier, policy.NewAllowList("admin@y.com"), store, exportService.WithLogger(logger)), logger),
		},
	})
}

func TestSurveyFlow(t *testing.T) {
	testutil.Given(t, "a gateway backed by SQLite and a stubbed identity provider", func(t *testing.T) {
		provider := testutil.NewTokenInfoServer(t, map[string]testutil.TokenInfo{
			"T1":    {Audience: clientID, Subject: "u1", Email: "x@y.com"},
			"ADMIN": {Audience: clientID, Subject: "a1", Email: "admin@y.com"},
			"OTHER": {Audience: "someone-else", Subject: "u9", Email: "z@y.com"},
		})
		gateway := newGateway(t, provider)

		submit := func(t *testing.T, token string) *http.Request {
			return testutil.NewJSONRequest(t, http.MethodPost, "/submit", map[string]any{
				"token":   token,
				"answers": map[string]any{"q1": "yes"},
			})
		}
		export := func(t *testing.T, token string) *http.Request {
			return testutil.WithBearer(testutil.NewRequestWithBody(t, http.MethodGet, "/export", ""), token)
		}

		testutil.When(t, "a user submits for the first time", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, submit(t, "T1"))

			testutil.Then(t, "the submission is accepted", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				testutil.AssertMessage(t, rr, "제출 완료!")
			})
		})

		testutil.When(t, "the same user submits again", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, submit(t, "T1"))

			testutil.Then(t, "it is rejected as already submitted", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
				testutil.AssertMessage(t, rr, "이미 설문을 제출했습니다.")
			})
		})

		testutil.When(t, "a token minted for another client is used", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, submit(t, "OTHER"))

			testutil.Then(t, "it is unauthorized", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
				testutil.AssertMessage(t, rr, "제출 실패")
			})
		})

		testutil.When(t, "a non-admin asks for the export", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, export(t, "T1"))

			testutil.Then(t, "it is forbidden", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
			})
		})

		testutil.When(t, "the admin asks for the export", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, export(t, "ADMIN"))

			testutil.Then(t, "it downloads a CSV holding the submission", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusOK)
				assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
				assert.Contains(t, rr.Header().Get("Content-Disposition"), "submissions.csv")

				lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
				require.Len(t, lines, 2)
				assert.Equal(t, "email,submittedAt,q1", lines[0])
				assert.True(t, strings.HasPrefix(lines[1], "x@y.com,"), lines[1])
				assert.True(t, strings.HasSuffix(lines[1], ",yes"), lines[1])
			})
		})

		testutil.When(t, "an unknown token asks for the export", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, export(t, "nope"))

			testutil.Then(t, "verification fails", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
				testutil.AssertMessage(t, rr, "토큰 검증 실패")
			})
		})

		testutil.When(t, "the export has no bearer header", func(t *testing.T) {
			rr := testutil.DoRequest(gateway, testutil.NewRequestWithBody(t, http.MethodGet, "/export", ""))

			testutil.Then(t, "it is told the token is missing", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
				testutil.AssertMessage(t, rr, "토큰이 없습니다.")
			})
		})
	})
}
