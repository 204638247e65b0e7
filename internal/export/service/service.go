package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"survey-gateway/internal/export/metrics"
	"survey-gateway/internal/export/models"
	"survey-gateway/internal/identity"
	submission "survey-gateway/internal/submission/models"
	dErrors "survey-gateway/pkg/domain-errors"
	"survey-gateway/pkg/requestcontext"
)

const (
	MsgVerificationFailed = "토큰 검증 실패"
	MsgAdminOnly          = "관리자만 접근할 수 있습니다."
)

var tracer = otel.Tracer("survey-gateway/export")

type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

// Policy decides whether a verified identity may export.
type Policy interface {
	AllowExport(id identity.Identity) bool
}

// Reader is read-only access to the submission ledger.
type Reader interface {
	ListAll(ctx context.Context) ([]*submission.Submission, error)
}

// Service produces the CSV export for authorized callers.
type Service struct {
	verifier Verifier
	policy   Policy
	reader   Reader
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(verifier Verifier, policy Policy, reader Reader, opts ...Option) *Service {
	s := &Service{
		verifier: verifier,
		policy:   policy,
		reader:   reader,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export verifies token, checks the export policy and, only when both pass,
// reads the ledger and flattens it into a Document. Rows whose answers are
// corrupt are exported with empty answer cells.
func (s *Service) Export(ctx context.Context, token string) (*models.Document, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "export.Export")
	defer span.End()

	doc, corrupt, outcome, err := s.export(ctx, token)
	rows := 0
	if doc != nil {
		rows = len(doc.Rows)
	}
	if s.metrics != nil {
		s.metrics.ObserveExport(outcome, rows, corrupt, start)
	}
	span.SetAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("rows", rows),
	)
	if outcome == metrics.OutcomeFailed {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
	}
	return doc, err
}

func (s *Service) export(ctx context.Context, token string) (*models.Document, int, string, error) {
	requestID := requestcontext.RequestID(ctx)

	id, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, 0, metrics.OutcomeUnauthorized, dErrors.Wrap(err, dErrors.CodeUnauthorized, MsgVerificationFailed)
	}
	if !s.policy.AllowExport(id) {
		s.logger.WarnContext(ctx, "export denied by policy",
			"request_id", requestID,
			"subject_id", id.SubjectID,
		)
		return nil, 0, metrics.OutcomeForbidden, dErrors.New(dErrors.CodeForbidden, MsgAdminOnly)
	}

	subs, err := s.reader.ListAll(ctx)
	if err != nil {
		return nil, 0, metrics.OutcomeFailed, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read submissions")
	}

	rows := make([]flatRow, 0, len(subs))
	corrupt := 0
	for _, sub := range subs {
		fields, ok := flattenAnswers(sub.Answers)
		if !ok {
			corrupt++
			s.logger.WarnContext(ctx, "stored answers are not a JSON object; exporting empty answers",
				"request_id", requestID,
				"subject_id", sub.SubjectID,
			)
		}
		rows = append(rows, flatRow{email: sub.Email, submittedAt: sub.SubmittedAt, fields: fields})
	}

	s.logger.InfoContext(ctx, "export generated",
		"request_id", requestID,
		"subject_id", id.SubjectID,
		"rows", len(rows),
		"corrupt_rows", corrupt,
	)
	return buildDocument(rows), corrupt, metrics.OutcomeOK, nil
}
