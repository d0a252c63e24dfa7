package ingestion

import "context"

// Pipeline stages, in order.
const (
	StageUploading = "uploading"
	StageLoading   = "loading"
	StageOCR       = "ocr"
	StageMetadata  = "metadata"
	StageChunking  = "chunking"
	StageEmbedding = "embedding"
	StageStoring   = "storing"
	StageComplete  = "complete"
	StageError     = "error"
)

// ProgressEvent is one update on the ingestion stream. Exactly one terminal
// event (complete or error) ends every stream.
type ProgressEvent struct {
	Stage       string  `json:"stage"`
	Progress    int     `json:"progress"` // 0-100
	Message     string  `json:"message"`
	CurrentPage int     `json:"current_page,omitempty"`
	TotalPages  int     `json:"total_pages,omitempty"`
	CurrentChunk int    `json:"current_chunk,omitempty"`
	TotalChunks int     `json:"total_chunks,omitempty"`
	ETASeconds  float64 `json:"eta_seconds,omitempty"`

	Result *IngestResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// IngestResult is the success payload of a completed ingestion.
type IngestResult struct {
	AssetID          string  `json:"asset_id"`
	DocumentID       string  `json:"document_id"`
	Manufacturer     string  `json:"manufacturer,omitempty"`
	Model            string  `json:"model,omitempty"`
	EquipmentName    string  `json:"equipment_name,omitempty"`
	ExtractionMethod string  `json:"extraction_method"`
	Pages            int     `json:"pages"`
	Confidence       float64 `json:"confidence"`
	DocumentTypes    []string `json:"document_types"`
	ChunksCreated    int     `json:"chunks_created"`
	ChunksPersisted  int     `json:"chunks_persisted"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
	IsDuplicate      bool    `json:"is_duplicate"`
	Duplicate        *DuplicateReport `json:"duplicate,omitempty"`
}

// emitter pushes progress events without ever blocking past cancellation.
type emitter struct {
	ch  chan ProgressEvent
	ctx context.Context
}

func newEmitter(ctx context.Context) *emitter {
	return &emitter{ch: make(chan ProgressEvent, 16), ctx: ctx}
}

func (e *emitter) send(ev ProgressEvent) {
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

func (e *emitter) stage(stage string, progress int, message string) {
	e.send(ProgressEvent{Stage: stage, Progress: progress, Message: message})
}

func (e *emitter) close() { close(e.ch) }
