package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// maxDraftBytes bounds the request body of a create or update.
const maxDraftBytes = 1 << 20

// EvaluationDependencies defines the record operations used by the handlers.
type EvaluationDependencies interface {
	List(ctx context.Context, search string) []model.Evaluation
	Get(ctx context.Context, id string) (model.Evaluation, error)
	Save(ctx context.Context, draft model.Draft) (model.Evaluation, error)
	Delete(ctx context.Context, id string) error
}

// EvaluationsHandler handles /evaluations requests.
type EvaluationsHandler struct {
	deps   EvaluationDependencies
	logger logger.Logger
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies, l logger.Logger) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps, logger: l}
}

type listResponse struct {
	Items []model.Evaluation `json:"items"`
	Count int                `json:"count"`
}

// HandleList handles GET /evaluations?q= requests.
func (h *EvaluationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items := h.deps.List(r.Context(), r.URL.Query().Get("q"))
	if items == nil {
		items = []model.Evaluation{}
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

// HandleGet handles GET /evaluations/{id} requests.
func (h *EvaluationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	ev, err := h.deps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleCreate handles POST /evaluations. Any id in the body is ignored.
func (h *EvaluationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_evaluation"
	draft, err := decodeDraft(w, r)
	if err != nil {
		writeServiceError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	draft.ID = ""
	draft.Date = model.Timestamp{}
	ev, err := h.deps.Save(r.Context(), draft)
	if err != nil {
		h.logger.Warn(r.Context(), "create rejected", logger.Error(err))
		writeServiceError(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/evaluations/"+ev.ID)
	writeJSON(w, http.StatusCreated, ev)
}

// HandleUpdate handles PUT /evaluations/{id}. The path id wins over the body.
func (h *EvaluationsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_evaluation"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeServiceError(w, NewKind(op, ErrBadRequest))
		return
	}
	draft, err := decodeDraft(w, r)
	if err != nil {
		writeServiceError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	draft.ID = id
	ev, err := h.deps.Save(r.Context(), draft)
	if err != nil {
		h.logger.Warn(r.Context(), "update rejected", logger.String("id", id), logger.Error(err))
		writeServiceError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleDelete handles DELETE /evaluations/{id}.
func (h *EvaluationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_evaluation"
	if err := h.deps.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (model.Draft, error) {
	var d model.Draft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDraftBytes))
	if err := dec.Decode(&d); err != nil {
		return model.Draft{}, err
	}
	if d.Ratings == nil {
		d.Ratings = model.Ratings{}
	}
	return d, nil
}
