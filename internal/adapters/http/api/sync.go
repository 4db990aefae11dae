package api

import (
	"context"
	"net/http"

	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
)

// SyncDependencies defines the manual sync operations.
type SyncDependencies interface {
	TryRefresh(ctx context.Context) (service.PullResult, error)
	Status(ctx context.Context) service.Status
}

// SyncHandler handles manual refresh and sync status requests.
type SyncHandler struct {
	deps SyncDependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps SyncDependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

type refreshResponse struct {
	Source  service.Source `json:"source"`
	Records int            `json:"records"`
	Stale   bool           `json:"stale"`
	Error   string         `json:"error,omitempty"`
}

// HandleRefresh handles POST /sync. A pull that fell back to local data is
// still a 200 with stale set, since the collection was refreshed from
// somewhere.
func (h *SyncHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync_refresh"
	res, err := h.deps.TryRefresh(r.Context())
	if err != nil {
		writeServiceError(w, Wrap(op, err))
		return
	}
	out := refreshResponse{Source: res.Source, Records: res.Records, Stale: res.Stale()}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleStatus handles GET /sync.
func (h *SyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Status(r.Context()))
}
