// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/Jhon-Henrry67/Evaluaciongoutier/internal/app"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the sync service.
type Dependencies interface {
	EvaluationDependencies
	ReportDependencies
	SyncDependencies
	StatsProvider
	CatalogProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	catalogHandler     *CatalogHandler
	evaluationsHandler *EvaluationsHandler
	reportHandler      *ReportHandler
	syncHandler        *SyncHandler

	limiter *WriteLimiter
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{
		writeRatePerMinute: defaultWriteRatePerMinute,
		logger:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		catalogHandler:     NewCatalogHandler(deps),
		evaluationsHandler: NewEvaluationsHandler(deps, cfg.logger),
		reportHandler:      NewReportHandler(deps, cfg.logger),
		syncHandler:        NewSyncHandler(deps),
		limiter:            NewWriteLimiter(cfg.writeRatePerMinute, cfg.now),
		logger:             cfg.logger,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /catalog", MetricsMiddleware(s.catalogHandler.HandleGetCatalog, "catalog"))

	mux.HandleFunc("GET /evaluations", MetricsMiddleware(s.evaluationsHandler.HandleList, "evaluations"))
	mux.HandleFunc("POST /evaluations", MetricsMiddleware(s.limiter.Limit(s.evaluationsHandler.HandleCreate, "evaluations"), "evaluations"))
	mux.HandleFunc("GET /evaluations/{id}", MetricsMiddleware(s.evaluationsHandler.HandleGet, "evaluation"))
	mux.HandleFunc("PUT /evaluations/{id}", MetricsMiddleware(s.limiter.Limit(s.evaluationsHandler.HandleUpdate, "evaluation"), "evaluation"))
	mux.HandleFunc("DELETE /evaluations/{id}", MetricsMiddleware(s.limiter.Limit(s.evaluationsHandler.HandleDelete, "evaluation"), "evaluation"))
	mux.HandleFunc("GET /evaluations/{id}/report", MetricsMiddleware(s.reportHandler.HandleDetail, "report"))
	mux.HandleFunc("GET /evaluations/{id}/pdf", MetricsMiddleware(s.reportHandler.HandlePDF, "pdf"))

	mux.HandleFunc("POST /sync", MetricsMiddleware(s.limiter.Limit(s.syncHandler.HandleRefresh, "sync"), "sync"))
	mux.HandleFunc("GET /sync", MetricsMiddleware(s.syncHandler.HandleStatus, "sync"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates sync service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrSyncInFlight):
		writeError(w, http.StatusConflict, "sync_in_flight", err)
	case errors.Is(err, service.ErrPushFailed):
		writeError(w, http.StatusBadGateway, "push_failed", err)
	case errors.Is(err, service.ErrNoRemote):
		writeError(w, http.StatusServiceUnavailable, "no_remote", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
