package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maintexa-ai/maintexa/internal/api/middlewares"
	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/graph"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

type AssetHandler struct {
	db        core.DbClient
	hierarchy *graph.HierarchyResolver
	traverser *graph.Traverser
	log       *logger.Logger
}

func NewAssetHandler(db core.DbClient, hierarchy *graph.HierarchyResolver, traverser *graph.Traverser, log *logger.Logger) *AssetHandler {
	return &AssetHandler{db: db, hierarchy: hierarchy, traverser: traverser, log: log}
}

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	assets, err := h.db.ListAssetsByOrg(r.Context(), orgID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, assets)
}

// Get returns the asset with its hierarchy context, the view a technician
// opens before asking about a machine.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	hc, err := h.hierarchy.Resolve(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, hc)
}

// Dependencies returns the traversed dependency graph around an asset.
func (h *AssetHandler) Dependencies(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	res, err := h.traverser.Traverse(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}
