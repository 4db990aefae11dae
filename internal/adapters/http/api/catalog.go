package api

import (
	"net/http"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
)

// CatalogProvider exposes the evaluation structure.
type CatalogProvider interface {
	Catalog() *catalog.Catalog
}

// CatalogHandler serves the evaluation structure so clients can build forms.
type CatalogHandler struct {
	deps CatalogProvider
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogProvider) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleGetCatalog handles GET /catalog requests.
func (h *CatalogHandler) HandleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Catalog())
}
