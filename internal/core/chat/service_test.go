package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/graph"
	"github.com/maintexa-ai/maintexa/internal/core/metadata"
	"github.com/maintexa-ai/maintexa/internal/core/query"
	"github.com/maintexa-ai/maintexa/internal/core/search"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func chatDB() *testutil.FakeDB {
	return &testutil.FakeDB{
		GetAssetByIDFn: func(_ context.Context, _, id string) (*models.Asset, error) {
			if id == "cmp" {
				return &models.Asset{ID: "cmp", Name: "Air Compressor", Level: "equipment", Category: "compressor", Path: "cmp"}, nil
			}
			return nil, nil
		},
		ListAssetsByOrgFn: func(_ context.Context, _ string) ([]models.Asset, error) {
			return []models.Asset{{ID: "cmp", Name: "Air Compressor", Code: "CMP-01"}}, nil
		},
		SearchChunksFn: func(_ context.Context, _ []float32, _ core.ChunkSearchFilter) ([]core.ScoredChunk, error) {
			return []core.ScoredChunk{{
				Chunk:         models.DocumentChunk{Content: "Check the oil level weekly.", PageNumber: 12, SectionName: "MAINTENANCE"},
				AssetName:     "Air Compressor",
				DocumentTypes: []string{metadata.TypeManual},
				Similarity:    0.9,
			}}, nil
		},
	}
}

func newTestService(db *testutil.FakeDB, streamLLM *testutil.FakeLLM) *Service {
	log := logger.NewNop()
	analyzerLLM := &testutil.FakeLLM{Err: errors.New("model offline")}
	engine := search.NewEngine(
		db, &testutil.FakeEmbedder{Dim: 4},
		graph.NewTraverser(db, 3, log),
		graph.NewHierarchyResolver(db, log),
		15, log,
	)
	return NewService(
		db, streamLLM,
		query.NewAnalyzer(analyzerLLM, 100, log),
		query.NewAliasResolver(db, log),
		query.NewDetector(db, 0.75, log),
		engine, log,
	)
}

func collect(t *testing.T, events <-chan Event) (deltas []string, meta *Metadata, errs []error) {
	t.Helper()
	for ev := range events {
		switch {
		case ev.Err != nil:
			errs = append(errs, ev.Err)
		case ev.Metadata != nil:
			meta = ev.Metadata
		default:
			deltas = append(deltas, ev.Delta)
		}
	}
	return deltas, meta, errs
}

func TestStreamWithExplicitAsset(t *testing.T) {
	llm := &testutil.FakeLLM{Stream: []string{"Check ", "the oil ", "level."}}
	svc := newTestService(chatDB(), llm)

	events := svc.Stream(context.Background(), Request{
		OrganizationID: "org-1",
		AssetID:        "cmp",
		Message:        "oil change interval?",
	})
	deltas, meta, errs := collect(t, events)

	assert.Empty(t, errs)
	assert.Equal(t, "Check the oil level.", strings.Join(deltas, ""))
	require.NotNil(t, meta)
	assert.Equal(t, query.IntentMaintenance, meta.Analysis.Intent)
	assert.Nil(t, meta.Detection)
	assert.Equal(t, 2, meta.Search.SourcesUsed) // chunk + hierarchy block
	assert.Contains(t, meta.Search.SourceTypes, search.SourceManual)
}

func TestStreamDetectsEquipmentFromMessage(t *testing.T) {
	llm := &testutil.FakeLLM{Stream: []string{"ok"}}
	svc := newTestService(chatDB(), llm)

	events := svc.Stream(context.Background(), Request{
		OrganizationID: "org-1",
		Message:        "the air compressor is making noise",
	})
	_, meta, errs := collect(t, events)

	assert.Empty(t, errs)
	require.NotNil(t, meta)
	require.NotNil(t, meta.Detection)
	assert.Equal(t, query.ModeSingle, meta.Detection.Mode)
	assert.Equal(t, "cmp", meta.Detection.Primary.AssetID)
	// Detection selected the asset, so retrieval ran in its scope.
	assert.Greater(t, meta.Search.SourcesUsed, 0)
}

func TestStreamModelFailure(t *testing.T) {
	llm := &testutil.FakeLLM{Err: errors.New("quota exhausted")}
	svc := newTestService(chatDB(), llm)

	events := svc.Stream(context.Background(), Request{
		OrganizationID: "org-1",
		AssetID:        "cmp",
		Message:        "oil change interval?",
	})
	_, meta, errs := collect(t, events)

	require.Len(t, errs, 1)
	assert.Nil(t, meta)
}

func TestStreamRetrievalFailureDegrades(t *testing.T) {
	db := chatDB()
	db.SearchChunksFn = func(_ context.Context, _ []float32, _ core.ChunkSearchFilter) ([]core.ScoredChunk, error) {
		return nil, assert.AnError
	}
	llm := &testutil.FakeLLM{Stream: []string{"answer"}}
	svc := newTestService(db, llm)

	events := svc.Stream(context.Background(), Request{
		OrganizationID: "org-1",
		AssetID:        "cmp",
		Message:        "oil change interval?",
	})
	deltas, meta, errs := collect(t, events)

	assert.Empty(t, errs)
	assert.Equal(t, []string{"answer"}, deltas)
	require.NotNil(t, meta)
	assert.Zero(t, meta.Search.SourcesUsed)
}

func TestBuildPromptLayout(t *testing.T) {
	req := Request{
		Message: "why is it overheating?",
		History: []Turn{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi"}},
	}
	analysis := query.QueryAnalysis{
		Intent:         query.IntentTroubleshooting,
		ResponseFormat: "steps",
		SafetyWarnings: true,
		Urgency:        query.UrgencyEmergency,
	}
	assetCtx := &query.AssetContext{Name: "Air Compressor", Category: "compressor"}
	fusion := &search.FusionResult{Sources: []search.ContextSource{{
		SourceType: search.SourceManual,
		Content:    "Clean the cooling fins.",
		PageNumber: 7,
		Section:    "TROUBLESHOOTING",
		Similarity: 0.9,
	}}}

	system, user := buildPrompt(req, req.Message, analysis, assetCtx, fusion)

	assert.Contains(t, system, "numbered list")
	assert.Contains(t, system, "safety warnings")
	assert.Contains(t, system, "emergency")

	assert.Contains(t, user, "Equipment: Air Compressor (compressor)")
	assert.Contains(t, user, "[1] (manual, page 7, TROUBLESHOOTING)")
	assert.Contains(t, user, "Clean the cooling fins.")
	assert.Contains(t, user, "user: hello")
	assert.Contains(t, user, "Question: why is it overheating?")
}

func TestBuildPromptWithoutContext(t *testing.T) {
	system, user := buildPrompt(Request{Message: "hi"}, "hi", query.QueryAnalysis{}, nil, nil)

	assert.Contains(t, system, "maintenance assistant")
	assert.NotContains(t, user, "Documentation context")
	assert.Equal(t, "Question: hi", user)
}
