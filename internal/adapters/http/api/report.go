package api

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/adapters/report"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// ReportDependencies resolves a record into its printable form.
type ReportDependencies interface {
	Report(ctx context.Context, id string) (report.Detail, model.Evaluation, error)
}

// ReportHandler serves resolved reports and their PDF rendering.
type ReportHandler struct {
	deps   ReportDependencies
	logger logger.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies, l logger.Logger) *ReportHandler {
	return &ReportHandler{deps: deps, logger: l}
}

// HandleDetail handles GET /evaluations/{id}/report.
func (h *ReportHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_detail"
	detail, _, err := h.deps.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandlePDF handles GET /evaluations/{id}/pdf. The document is rendered in
// full before anything is written so a failure can still be reported.
func (h *ReportHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_pdf"
	detail, ev, err := h.deps.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := report.RenderPDF(&buf, detail); err != nil {
		h.logger.Error(r.Context(), "pdf rendering failed", logger.String("id", ev.ID), logger.Error(err))
		writeServiceError(w, WrapKind(op, ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename(ev)}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
