package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"survey-gateway/internal/export/models"
	"survey-gateway/internal/identity"
	"survey-gateway/internal/platform/middleware"
	dErrors "survey-gateway/pkg/domain-errors"
	"survey-gateway/pkg/platform/httputil"
)

const (
	MsgMissingToken = "토큰이 없습니다."

	exportFilename = "submissions.csv"
	requestTimeout = 60 * time.Second
)

// Service builds the export document for a bearer token.
type Service interface {
	Export(ctx context.Context, token string) (*models.Document, error)
}

// Handler serves GET /export.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.With(middleware.Timeout(requestTimeout)).Get("/export", h.HandleExport)
}

// HandleExport streams every submission as a CSV attachment to an
// authorized administrator.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	token, ok := middleware.BearerToken(r)
	if !ok {
		h.logger.WarnContext(ctx, "export without bearer token", "request_id", requestID)
		httputil.WriteMessage(w, http.StatusUnauthorized, MsgMissingToken)
		return
	}

	doc, err := h.service.Export(ctx, token)
	if err != nil {
		h.logFailure(ctx, requestID, err)
		httputil.WriteError(w, err)
		return
	}

	// Render before writing headers so a serialization error can still
	// become a 500.
	var buf bytes.Buffer
	if err := doc.WriteCSV(&buf); err != nil {
		h.logger.ErrorContext(ctx, "failed to render export",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render export"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) logFailure(ctx context.Context, requestID string, err error) {
	switch {
	case dErrors.HasCode(err, dErrors.CodeUnauthorized):
		h.logger.WarnContext(ctx, "export token rejected",
			"request_id", requestID,
			"kind", string(identity.KindOf(err)),
			"error", err.Error(),
		)
	case dErrors.HasCode(err, dErrors.CodeForbidden):
		h.logger.WarnContext(ctx, "export forbidden", "request_id", requestID)
	default:
		h.logger.ErrorContext(ctx, "export failed",
			"request_id", requestID,
			"error", err.Error(),
		)
	}
}
