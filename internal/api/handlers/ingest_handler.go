package handlers

import (
	"io"
	"net/http"

	"github.com/maintexa-ai/maintexa/internal/api/middlewares"
	"github.com/maintexa-ai/maintexa/internal/core/ingestion"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

type IngestHandler struct {
	pipeline *ingestion.Pipeline
	maxBytes int64
	log      *logger.Logger
}

func NewIngestHandler(pipeline *ingestion.Pipeline, maxBytes int64, log *logger.Logger) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, maxBytes: maxBytes, log: log}
}

// Upload accepts a multipart PDF upload and streams ingestion progress back
// as server-sent events until the terminal complete or error event. Closing
// the connection cancels the job between stages.
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgID(r.Context())
	if !ok {
		http.Error(w, "organization not found in context", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		http.Error(w, "upload too large or malformed", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read upload", http.StatusBadRequest)
		return
	}

	job := ingestion.Job{
		OrganizationID: orgID,
		AssetID:        r.FormValue("asset_id"),
		FileName:       header.Filename,
		TypeHint:       r.FormValue("document_type"),
		Data:           data,
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for ev := range h.pipeline.Run(r.Context(), job) {
		name := "progress"
		switch ev.Stage {
		case ingestion.StageComplete:
			name = "complete"
		case ingestion.StageError:
			name = "error"
		}
		if err := sse.event(name, ev); err != nil {
			h.log.Warn("progress stream broken", "error", err)
			return
		}
	}
}
