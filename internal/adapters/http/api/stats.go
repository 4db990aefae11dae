package api

import (
	"context"
	"net/http"

	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/stats"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	Status(ctx context.Context) service.Status
	Overview(ctx context.Context) stats.Overview
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

type statsResponse struct {
	Sync     service.Status `json:"sync"`
	Overview stats.Overview `json:"overview"`
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, statsResponse{
		Sync:     h.statsProvider.Status(ctx),
		Overview: h.statsProvider.Overview(ctx),
	})
}
