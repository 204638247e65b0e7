package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"survey-gateway/internal/identity"
	"survey-gateway/internal/platform/middleware"
	"survey-gateway/internal/submission/models"
	dErrors "survey-gateway/pkg/domain-errors"
	"survey-gateway/pkg/platform/httputil"
)

const (
	MsgSubmitted    = "제출 완료!"
	MsgSubmitFailed = "제출 실패"

	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

// Verifier resolves a bearer token to a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

// Service records survey submissions.
type Service interface {
	Submit(ctx context.Context, id identity.Identity, answers json.RawMessage) (*models.Submission, error)
}

// Handler serves POST /submit.
type Handler struct {
	verifier Verifier
	service  Service
	logger   *slog.Logger
}

func New(verifier Verifier, service Service, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, service: service, logger: logger}
}

// Register mounts the submission route on r.
func (h *Handler) Register(r chi.Router) {
	r.With(
		middleware.Timeout(requestTimeout),
		middleware.ContentTypeJSON,
	).Post("/submit", h.HandleSubmit)
}

// HandleSubmit verifies the token in the body and records its answers once.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.SubmitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	id, err := h.verifier.Verify(ctx, req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "submit token rejected",
			"request_id", requestID,
			"kind", string(identity.KindOf(err)),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, MsgSubmitFailed))
		return
	}

	if _, err := h.service.Submit(ctx, id, req.Answers); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to record submission",
				"request_id", requestID,
				"subject_id", id.SubjectID,
				"error", err.Error(),
			)
		} else {
			h.logger.InfoContext(ctx, "submission refused",
				"request_id", requestID,
				"subject_id", id.SubjectID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, MsgSubmitted)
}
