package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/metadata"
	"github.com/maintexa-ai/maintexa/internal/core/ocr"
	"github.com/maintexa-ai/maintexa/internal/core/pdf"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// Extraction methods recorded on documents and chunks.
const (
	MethodNative = "native"
	MethodOCR    = "ocr"
)

// scannedCharsPerPage is the native-text density below which a document is
// treated as scanned and routed through OCR.
const scannedCharsPerPage = 50

// chunkInsertBatch bounds one chunk insert transaction.
const chunkInsertBatch = 100

// DocumentReader is what the pipeline needs from the PDF layer.
type DocumentReader interface {
	Validate(data []byte, maxBytes int64) error
	ExtractPages(ctx context.Context, data []byte) ([]pdf.PageText, error)
	ExtractPageImages(ctx context.Context, data []byte) ([]pdf.PageImage, error)
}

// Job is one upload to ingest. AssetID is optional: empty means create a new
// equipment asset from the extracted identity.
type Job struct {
	OrganizationID string
	AssetID        string
	FileName       string
	TypeHint       string
	Data           []byte
}

// PipelineConfig carries the ingestion knobs out of the service config.
type PipelineConfig struct {
	Bucket            string
	MaxUploadBytes    int64
	MinExtractedChars int
	Chunker           ChunkerConfig
}

// Pipeline sequences validation, extraction, metadata, chunking, embedding
// and persistence for one document, streaming progress as it goes. One
// Pipeline serves many jobs; per-job state lives on the stack.
type Pipeline struct {
	db         core.DbClient
	store      core.ObjectClient
	pdf        DocumentReader
	ocr        *ocr.Engine
	meta       *metadata.Extractor
	classifier *metadata.Classifier
	fingers    *FingerprintCache
	embedder   *BatchEmbedder
	cfg        PipelineConfig
	log        *logger.Logger
}

func NewPipeline(
	db core.DbClient,
	store core.ObjectClient,
	pdfx DocumentReader,
	ocrEngine *ocr.Engine,
	meta *metadata.Extractor,
	classifier *metadata.Classifier,
	fingers *FingerprintCache,
	embedder *BatchEmbedder,
	cfg PipelineConfig,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		db: db, store: store, pdf: pdfx, ocr: ocrEngine, meta: meta,
		classifier: classifier, fingers: fingers, embedder: embedder,
		cfg: cfg, log: log,
	}
}

// Run starts the job and returns its ordered progress stream. The stream
// always ends with exactly one terminal event unless ctx is cancelled first;
// after cancellation no further external calls are made and already
// persisted state stays in place.
func (p *Pipeline) Run(ctx context.Context, job Job) <-chan ProgressEvent {
	em := newEmitter(ctx)
	go func() {
		defer em.close()
		p.run(ctx, job, em)
	}()
	return em.ch
}

func (p *Pipeline) run(ctx context.Context, job Job, em *emitter) {
	started := time.Now()
	log := p.log.With("org", job.OrganizationID, "file", job.FileName)

	fail := func(stage string, err error) {
		log.Error("ingestion failed", "stage", stage, "error", err)
		em.send(ProgressEvent{Stage: StageError, Progress: 100, Error: err.Error()})
	}

	// ---- uploading: validate, dedup, keep the original ----
	em.stage(StageUploading, 0, "validating upload")

	if err := p.pdf.Validate(job.Data, p.cfg.MaxUploadBytes); err != nil {
		fail(StageUploading, err)
		return
	}

	fingerprint := Fingerprint(job.Data)
	if dup, err := p.fingers.Lookup(ctx, job.OrganizationID, fingerprint); err != nil {
		log.Warn("duplicate lookup failed, continuing", "error", err)
	} else if dup != nil {
		log.Info("duplicate upload detected", "existing_doc", dup.DocumentID)
		em.send(ProgressEvent{
			Stage: StageComplete, Progress: 100,
			Message: "document already ingested",
			Result: &IngestResult{
				AssetID:          dup.AssetID,
				DocumentID:       dup.DocumentID,
				IsDuplicate:      true,
				Duplicate:        dup,
				ProcessingTimeMS: time.Since(started).Milliseconds(),
			},
		})
		return
	}

	docID := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s", job.OrganizationID, docID, filepath.Base(job.FileName))
	storageURL, err := p.store.UploadFile(ctx, p.cfg.Bucket, key, bytes.NewReader(job.Data), "application/pdf")
	if err != nil {
		fail(StageUploading, fmt.Errorf("store original: %w", err))
		return
	}

	if err := ctx.Err(); err != nil {
		return
	}

	// ---- loading: native text ----
	em.stage(StageLoading, 10, "reading document")

	pages, err := p.pdf.ExtractPages(ctx, job.Data)
	if err != nil {
		fail(StageLoading, err)
		return
	}
	totalPages := len(pages)

	if err := ctx.Err(); err != nil {
		return
	}

	// ---- ocr: only when the native text is too thin ----
	method := MethodNative
	confidence := 1.0
	text := joinPages(pages)

	if pdf.IsScanned(pages, scannedCharsPerPage) {
		method = MethodOCR
		em.send(ProgressEvent{Stage: StageOCR, Progress: 20, Message: "scanned document, running OCR", TotalPages: totalPages})

		images, err := p.pdf.ExtractPageImages(ctx, job.Data)
		if err != nil {
			fail(StageOCR, err)
			return
		}

		ocrStart := time.Now()
		res, err := p.ocr.Run(ctx, images, func(done, total int) {
			eta := 0.0
			if done > 0 {
				perPage := time.Since(ocrStart).Seconds() / float64(done)
				eta = perPage * float64(total-done)
			}
			em.send(ProgressEvent{
				Stage: StageOCR, Progress: 20 + 30*done/total,
				Message:     fmt.Sprintf("recognizing page %d of %d", done, total),
				CurrentPage: done, TotalPages: total, ETASeconds: eta,
			})
		})
		if err != nil {
			fail(StageOCR, &core.ExtractionError{Stage: StageOCR, Err: err})
			return
		}
		confidence = res.Confidence
		text = res.Text
	}

	if len(text) < p.cfg.MinExtractedChars {
		fail(StageOCR, &core.InsufficientTextError{Chars: len(text), Min: p.cfg.MinExtractedChars})
		return
	}

	if err := ctx.Err(); err != nil {
		return
	}

	// ---- metadata: identity + document types, cheapest tier first ----
	em.stage(StageMetadata, 55, "extracting equipment identity")

	meta, err := p.meta.Extract(ctx, fingerprint, text, job.FileName)
	if err != nil {
		// The extractor degrades internally; an error here is unexpected.
		fail(StageMetadata, err)
		return
	}

	classification := p.classifier.Classify(ctx, text)
	docTypes := classification.Types
	if job.TypeHint != "" {
		docTypes = prependUnique(docTypes, job.TypeHint)
	}

	assetID, err := p.resolveAsset(ctx, job, meta)
	if err != nil {
		fail(StageMetadata, err)
		return
	}

	doc := &models.Document{
		ID:               docID,
		OrganizationID:   job.OrganizationID,
		AssetID:          assetID,
		FileName:         job.FileName,
		FileSize:         int64(len(job.Data)),
		Fingerprint:      fingerprint,
		StorageURL:       storageURL,
		Status:           models.StatusProcessing,
		DocumentTypes:    docTypes,
		TypeConfidence:   classification.Confidence,
		ExtractionMethod: method,
		PageCount:        totalPages,
	}
	if err := p.db.CreateDocument(ctx, doc); err != nil {
		fail(StageMetadata, &core.PersistenceError{Op: "create document", Err: err})
		return
	}

	if err := ctx.Err(); err != nil {
		return
	}

	// ---- chunking ----
	em.stage(StageChunking, 65, "chunking document")

	chunker := NewChunker(p.cfg.Chunker)
	chunks := chunker.Chunk(text)
	report := ValidateChunks(chunks, len(text), p.cfg.Chunker)
	for _, w := range report.Warnings {
		log.Warn("chunk validation", "warning", w)
	}
	if len(chunks) == 0 {
		p.markError(docID)
		fail(StageChunking, &core.InsufficientTextError{Chars: len(text), Min: p.cfg.MinExtractedChars})
		return
	}

	if err := ctx.Err(); err != nil {
		return
	}

	// ---- embedding: sequential batches ----
	em.send(ProgressEvent{Stage: StageEmbedding, Progress: 70, Message: "generating embeddings", TotalChunks: len(chunks)})

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vecs, err := p.embedder.EmbedAll(ctx, texts, func(done, total int) {
		em.send(ProgressEvent{
			Stage: StageEmbedding, Progress: 70 + 20*done/total,
			Message:      fmt.Sprintf("embedded %d of %d chunks", done, total),
			CurrentChunk: done, TotalChunks: total,
		})
	})
	if err != nil {
		p.markError(docID)
		fail(StageEmbedding, err)
		return
	}

	if err := ctx.Err(); err != nil {
		return
	}

	// ---- storing ----
	em.stage(StageStoring, 92, "persisting chunks")

	rows := make([]models.DocumentChunk, len(chunks))
	for i, ch := range chunks {
		rows[i] = models.DocumentChunk{
			ID:               uuid.NewString(),
			DocumentID:       docID,
			AssetID:          assetID,
			Content:          ch.Content,
			Embedding:        vecs[i],
			ChunkIndex:       ch.Index,
			PageNumber:       estimatePage(ch.Offset, len(text), totalPages),
			SectionName:      ch.Section,
			SectionPart:      ch.SectionPart,
			SectionComplete:  ch.SectionComplete,
			ExtractionMethod: method,
		}
	}

	persisted := 0
	for start := 0; start < len(rows); start += chunkInsertBatch {
		end := start + chunkInsertBatch
		if end > len(rows) {
			end = len(rows)
		}
		if err := p.db.InsertDocumentChunks(ctx, rows[start:end]); err != nil {
			// Lossy by policy: keep what we have rather than failing the
			// whole ingestion; the result reports the persisted count.
			log.Error("chunk batch insert failed", "from", start, "to", end, "error", err)
			continue
		}
		persisted += end - start
	}

	doc.Status = models.StatusCompleted
	if err := p.db.UpdateDocumentResult(ctx, doc); err != nil {
		p.markError(docID)
		fail(StageStoring, &core.PersistenceError{Op: "finalize document", Err: err})
		return
	}

	log.Info("ingestion complete",
		"doc", docID, "asset", assetID, "method", method,
		"chunks", len(chunks), "persisted", persisted,
		"elapsed", time.Since(started))

	em.send(ProgressEvent{
		Stage: StageComplete, Progress: 100, Message: "ingestion complete",
		Result: &IngestResult{
			AssetID:          assetID,
			DocumentID:       docID,
			Manufacturer:     meta.Manufacturer,
			Model:            meta.Model,
			EquipmentName:    meta.EquipmentName,
			ExtractionMethod: method,
			Pages:            totalPages,
			Confidence:       confidence,
			DocumentTypes:    docTypes,
			ChunksCreated:    len(chunks),
			ChunksPersisted:  persisted,
			ProcessingTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// resolveAsset attaches to the given asset or creates a new equipment-level
// asset from the extracted identity.
func (p *Pipeline) resolveAsset(ctx context.Context, job Job, meta *models.CachedMetadata) (string, error) {
	if job.AssetID != "" {
		asset, err := p.db.GetAssetByID(ctx, job.OrganizationID, job.AssetID)
		if err != nil {
			return "", &core.PersistenceError{Op: "get asset", Err: err}
		}
		if asset == nil {
			return "", &core.NotFoundError{Kind: "asset", ID: job.AssetID}
		}
		// Fill identity fields the asset doesn't have yet.
		if asset.Manufacturer == "" && meta.Manufacturer != "" {
			if err := p.db.UpdateAssetIdentity(ctx, job.OrganizationID, asset.ID,
				meta.Manufacturer, meta.Model, meta.Category); err != nil {
				p.log.Warn("asset identity update failed", "asset", asset.ID, "error", err)
			}
		}
		return asset.ID, nil
	}

	name := meta.EquipmentName
	if name == "" {
		name = job.FileName
	}
	asset := &models.Asset{
		ID:             uuid.NewString(),
		OrganizationID: job.OrganizationID,
		Name:           name,
		Level:          models.LevelEquipment,
		Manufacturer:   meta.Manufacturer,
		Model:          meta.Model,
		Category:       meta.Category,
	}
	asset.Path = asset.ID
	if err := p.db.CreateAsset(ctx, asset); err != nil {
		return "", &core.PersistenceError{Op: "create asset", Err: err}
	}
	return asset.ID, nil
}

func (p *Pipeline) markError(docID string) {
	// Best effort, detached from the possibly cancelled job context.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.db.UpdateDocumentStatus(ctx, docID, models.StatusError); err != nil {
		p.log.Warn("could not mark document errored", "doc", docID, "error", err)
	}
}

func joinPages(pages []pdf.PageText) string {
	var b bytes.Buffer
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// estimatePage maps a chunk's offset in the concatenated text to a 1-based
// page number proportionally. An estimate is enough for provenance display.
func estimatePage(offset, textLen, pages int) int {
	if textLen <= 0 || pages <= 0 {
		return 1
	}
	page := offset*pages/textLen + 1
	if page > pages {
		page = pages
	}
	return page
}

func prependUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append([]string{v}, list...)
}
