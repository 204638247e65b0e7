package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"survey-gateway/internal/identity"
	"survey-gateway/internal/submission/metrics"
	"survey-gateway/internal/submission/models"
	dErrors "survey-gateway/pkg/domain-errors"
	"survey-gateway/pkg/platform/sentinel"
	"survey-gateway/pkg/requestcontext"
)

// MsgAlreadySubmitted is returned to a subject that already has a submission.
const MsgAlreadySubmitted = "이미 설문을 제출했습니다."

var tracer = otel.Tracer("survey-gateway/submission")

// Store persists submissions. Create must fail with sentinel.ErrConflict when
// the subject already has a row, atomically with the insert.
type Store interface {
	FindBySubject(ctx context.Context, subjectID string) (*models.Submission, error)
	Create(ctx context.Context, sub *models.Submission) error
}

// Service records at most one submission per subject.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores answers for the verified subject. A second submission for the
// same subject, sequential or concurrent, fails with CodeConflict and leaves
// the first one untouched.
func (s *Service) Submit(ctx context.Context, id identity.Identity, answers json.RawMessage) (*models.Submission, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "submission.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("subject_id", id.SubjectID))

	sub, outcome, err := s.submit(ctx, id, answers)
	if s.metrics != nil {
		s.metrics.ObserveSubmit(outcome, start)
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil && outcome == metrics.OutcomeFailed {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
	}
	return sub, err
}

func (s *Service) submit(ctx context.Context, id identity.Identity, answers json.RawMessage) (*models.Submission, string, error) {
	if id.SubjectID == "" {
		return nil, metrics.OutcomeRejected, dErrors.New(dErrors.CodeInvariantViolation, "subject is required")
	}
	normalized, err := models.NormalizeAnswers(answers)
	if err != nil {
		return nil, metrics.OutcomeRejected, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}

	// Fast path only; the insert below is what actually guarantees uniqueness.
	if _, err := s.store.FindBySubject(ctx, id.SubjectID); err == nil {
		return nil, metrics.OutcomeDuplicate, dErrors.New(dErrors.CodeConflict, MsgAlreadySubmitted)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, metrics.OutcomeFailed, storeError(err, "failed to look up submission")
	}

	sub := &models.Submission{
		SubjectID:   id.SubjectID,
		Email:       id.Email,
		Answers:     normalized,
		SubmittedAt: requestcontext.Now(ctx).UTC().Truncate(time.Millisecond),
	}
	if err := s.store.Create(ctx, sub); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, metrics.OutcomeDuplicate, dErrors.New(dErrors.CodeConflict, MsgAlreadySubmitted)
		}
		return nil, metrics.OutcomeFailed, storeError(err, "failed to save submission")
	}

	s.logger.InfoContext(ctx, "submission recorded",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", sub.SubjectID,
	)
	return sub, metrics.OutcomeAccepted, nil
}

// storeError maps a store failure to a domain error. A request deadline that
// expired mid-query is a timeout, not an internal fault.
func storeError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "request timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
