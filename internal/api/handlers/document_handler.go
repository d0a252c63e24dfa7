package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maintexa-ai/maintexa/internal/api/middlewares"
	"github.com/maintexa-ai/maintexa/internal/config"
	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

type DocumentHandler struct {
	db    core.DbClient
	store core.ObjectClient
	cfg   *config.Config
	log   *logger.Logger
}

func NewDocumentHandler(db core.DbClient, store core.ObjectClient, cfg *config.Config, log *logger.Logger) *DocumentHandler {
	return &DocumentHandler{db: db, store: store, cfg: cfg, log: log}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	docs, err := h.db.ListDocumentsByOrg(r.Context(), orgID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	doc, err := h.db.GetDocumentByID(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, doc)
}

// Delete removes the document row (chunks cascade) and then the stored
// object. A failed object delete is logged, not surfaced: the document is
// already gone and re-deleting the orphan later is cheap.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	doc, err := h.db.GetDocumentByID(r.Context(), orgID, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	if err := h.db.DeleteDocument(r.Context(), orgID, id); err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if key := objectKey(doc.StorageURL); key != "" {
		if err := h.store.DeleteFile(r.Context(), h.cfg.BucketName, key); err != nil {
			h.log.Warn("stored object not deleted", "doc", id, "key", key, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type patchTypesRequest struct {
	DocumentTypes []string `json:"document_types" validate:"required,min=1,dive,oneof=manual schematic maintenance parts_list operations installation"`
}

// PatchTypes lets a reviewer confirm or correct the classified document
// types. Confirmed labels win over classifier output from then on.
func (h *DocumentHandler) PatchTypes(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")

	var req patchTypesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "invalid document_types: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateDocumentTypes(r.Context(), orgID, id, req.DocumentTypes, true); err != nil {
		var nf *core.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	doc, err := h.db.GetDocumentByID(r.Context(), orgID, id)
	if err != nil || doc == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, doc)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// objectKey recovers the bucket key from a stored object URL.
func objectKey(storageURL string) string {
	u, err := url.Parse(storageURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(path.Clean(u.Path), "/")
}
