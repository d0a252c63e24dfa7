package app

import (
	"context"
	"fmt"
	"time"

	"github.com/maintexa-ai/maintexa/internal/config"
	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/chat"
	db "github.com/maintexa-ai/maintexa/internal/core/database"
	"github.com/maintexa-ai/maintexa/internal/core/graph"
	"github.com/maintexa-ai/maintexa/internal/core/ingestion"
	"github.com/maintexa-ai/maintexa/internal/core/llm"
	"github.com/maintexa-ai/maintexa/internal/core/metadata"
	"github.com/maintexa-ai/maintexa/internal/core/objectstore"
	"github.com/maintexa-ai/maintexa/internal/core/ocr"
	"github.com/maintexa-ai/maintexa/internal/core/pdf"
	"github.com/maintexa-ai/maintexa/internal/core/query"
	"github.com/maintexa-ai/maintexa/internal/core/search"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// App owns every long-lived dependency and the wired HTTP server.
type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Pipeline     *ingestion.Pipeline
	Chat         *chat.Service
	Server       *Server
	Log          *logger.Logger
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(initCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	log.Info("database initialized and ready")

	objClient, err := objectstore.NewS3Client(initCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store init: %w", err)
	}
	log.Info("object client initialized and ready")

	embedder, err := llm.NewGeminiEmbedder(initCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("embedder init: %w", err)
	}
	llmProvider, err := llm.NewGeminiLLM(initCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("llm init: %w", err)
	}

	pdfExtractor := pdf.NewExtractor(log)
	ocrEngine := ocr.NewEngine(log, &ocr.DocconvRecognizer{}, cfg.OCRConcurrency)
	metaExtractor := metadata.NewExtractor(dbClient, llmProvider, log)
	classifier := metadata.NewClassifier(llmProvider, log)
	fingers := ingestion.NewFingerprintCache(dbClient, log)
	batchEmbedder := ingestion.NewBatchEmbedder(embedder, cfg.EmbedBatchSize, cfg.EmbedRatePerSec, cfg.EmbedDim)

	pipeline := ingestion.NewPipeline(
		dbClient, objClient, pdfExtractor, ocrEngine, metaExtractor,
		classifier, fingers, batchEmbedder,
		ingestion.PipelineConfig{
			Bucket:            cfg.BucketName,
			MaxUploadBytes:    cfg.MaxUploadBytes,
			MinExtractedChars: cfg.MinExtractedChars,
			Chunker: ingestion.ChunkerConfig{
				TargetSize: cfg.ChunkTargetSize,
				Overlap:    cfg.ChunkOverlap,
			},
		},
		log,
	)

	traverser := graph.NewTraverser(dbClient, cfg.GraphMaxDepth, log)
	hierarchy := graph.NewHierarchyResolver(dbClient, log)
	fusion := search.NewEngine(dbClient, embedder, traverser, hierarchy, cfg.MaxSearchResults, log)
	analyzer := query.NewAnalyzer(llmProvider, cfg.FullAnalysisMinLen, log)
	aliases := query.NewAliasResolver(dbClient, log)
	detector := query.NewDetector(dbClient, cfg.FuzzyThreshold, log)
	chatSvc := chat.NewService(dbClient, llmProvider, analyzer, aliases, detector, fusion, log)

	server := NewServer(cfg, log, dbClient, objClient, pipeline, chatSvc, traverser, hierarchy)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Pipeline:     pipeline,
		Chat:         chatSvc,
		Server:       server,
		Log:          log,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
