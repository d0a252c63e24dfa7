package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/graph"
	"github.com/maintexa-ai/maintexa/internal/core/metadata"
	"github.com/maintexa-ai/maintexa/internal/core/query"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func hit(content string, sim float64, types ...string) core.ScoredChunk {
	return core.ScoredChunk{
		Chunk:         models.DocumentChunk{Content: content, PageNumber: 3, SectionName: "MAINTENANCE"},
		AssetName:     "Compressor",
		DocumentTypes: types,
		Similarity:    sim,
	}
}

func fusionFixture(hits []core.ScoredChunk) (*testutil.FakeDB, *core.ChunkSearchFilter) {
	var captured core.ChunkSearchFilter
	db := &testutil.FakeDB{
		GetAssetByIDFn: func(_ context.Context, _, id string) (*models.Asset, error) {
			if id == "cmp" {
				return &models.Asset{ID: "cmp", Name: "Compressor", Path: "cmp"}, nil
			}
			if id == "gen" {
				return &models.Asset{ID: "gen", Name: "Generator"}, nil
			}
			return nil, nil
		},
		ListDependenciesFn: func(_ context.Context, equipmentID, direction string) ([]models.AssetDependency, error) {
			if equipmentID == "cmp" && direction == models.DirectionUpstream {
				return []models.AssetDependency{{EquipmentID: "cmp", DependsOnID: "gen", Direction: direction}}, nil
			}
			return nil, nil
		},
		SearchChunksFn: func(_ context.Context, _ []float32, filter core.ChunkSearchFilter) ([]core.ScoredChunk, error) {
			captured = filter
			return hits, nil
		},
	}
	return db, &captured
}

func newTestEngine(db *testutil.FakeDB, maxResults int) *Engine {
	log := logger.NewNop()
	return NewEngine(
		db,
		&testutil.FakeEmbedder{Dim: 4},
		graph.NewTraverser(db, 3, log),
		graph.NewHierarchyResolver(db, log),
		maxResults,
		log,
	)
}

func TestSearchChunkSources(t *testing.T) {
	db, captured := fusionFixture([]core.ScoredChunk{
		hit("drain the receiver daily", 0.9, metadata.TypeManual),
		hit("terminal block wiring", 0.8, metadata.TypeSchematic),
	})
	e := newTestEngine(db, 15)

	analysis := query.QueryAnalysis{Intent: query.IntentMaintenance}
	res, err := e.Search(context.Background(), "org-1", "", "oil change interval", analysis)

	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, SourceManual, res.Sources[0].SourceType)
	assert.Equal(t, SourceSchematic, res.Sources[1].SourceType)
	assert.Equal(t, 3, res.Sources[0].PageNumber)
	assert.Equal(t, "MAINTENANCE", res.Sources[0].Section)
	assert.Equal(t, []string{metadata.TypeMaintenance, metadata.TypeManual}, captured.DocumentTypes)
	assert.Equal(t, "org-1", captured.OrganizationID)
}

func TestSearchTypeFilterPerIntent(t *testing.T) {
	cases := []struct {
		analysis query.QueryAnalysis
		want     []string
	}{
		{
			query.QueryAnalysis{Intent: query.IntentTroubleshooting, SearchSchematics: true},
			[]string{metadata.TypeManual, metadata.TypeMaintenance, metadata.TypeOperations, metadata.TypeSchematic},
		},
		{
			query.QueryAnalysis{Intent: query.IntentParts},
			[]string{metadata.TypePartsList, metadata.TypeManual},
		},
		{
			query.QueryAnalysis{Intent: query.IntentSpecs, SearchSchematics: true},
			[]string{metadata.TypeManual, metadata.TypeSchematic},
		},
		{
			query.QueryAnalysis{Intent: query.IntentGeneral},
			nil,
		},
	}
	for _, tc := range cases {
		db, captured := fusionFixture(nil)
		e := newTestEngine(db, 15)
		_, err := e.Search(context.Background(), "org-1", "", "q", tc.analysis)
		require.NoError(t, err)
		assert.Equal(t, tc.want, captured.DocumentTypes, "intent %s", tc.analysis.Intent)
	}
}

func TestSearchFoldsGraphAndHierarchy(t *testing.T) {
	db, _ := fusionFixture([]core.ScoredChunk{hit("chunk", 0.9, metadata.TypeManual)})
	e := newTestEngine(db, 15)

	analysis := query.QueryAnalysis{Intent: query.IntentTroubleshooting, SearchDependencies: true}
	res, err := e.Search(context.Background(), "org-1", "cmp", "compressor won't start", analysis)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{SourceManual, SourceDependency, SourceHierarchy}, res.SourceTypes)

	var dep, hier *ContextSource
	for i := range res.Sources {
		switch res.Sources[i].SourceType {
		case SourceDependency:
			dep = &res.Sources[i]
		case SourceHierarchy:
			hier = &res.Sources[i]
		}
	}
	require.NotNil(t, dep)
	assert.Contains(t, dep.Content, "Generator")
	assert.Equal(t, syntheticSimilarity, dep.Similarity)
	require.NotNil(t, hier)
	assert.Contains(t, hier.Content, "Fed by: Generator")
}

func TestSearchNoAssetSkipsSyntheticSources(t *testing.T) {
	db, _ := fusionFixture([]core.ScoredChunk{hit("chunk", 0.9, metadata.TypeManual)})
	e := newTestEngine(db, 15)

	analysis := query.QueryAnalysis{Intent: query.IntentTroubleshooting, SearchDependencies: true}
	res, err := e.Search(context.Background(), "org-1", "", "compressor won't start", analysis)

	require.NoError(t, err)
	assert.Equal(t, []string{SourceManual}, res.SourceTypes)
}

func TestSearchSortsAndTruncates(t *testing.T) {
	hits := []core.ScoredChunk{
		hit("weak", 0.4, metadata.TypeManual),
		hit("strong", 0.95, metadata.TypeManual),
		hit("middling", 0.7, metadata.TypeManual),
	}
	db, _ := fusionFixture(hits)
	e := newTestEngine(db, 2)

	res, err := e.Search(context.Background(), "org-1", "", "q", query.QueryAnalysis{Intent: query.IntentGeneral})

	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "strong", res.Sources[0].Content)
	assert.Equal(t, "middling", res.Sources[1].Content)
}

func TestSearchQualityBuckets(t *testing.T) {
	cases := []struct {
		sims []float64
		want string
	}{
		{[]float64{0.9, 0.8}, QualityHigh},
		{[]float64{0.6, 0.6}, QualityMedium},
		{[]float64{0.3}, QualityLow},
		{nil, QualityLow},
	}
	for _, tc := range cases {
		var hits []core.ScoredChunk
		for _, s := range tc.sims {
			hits = append(hits, hit("c", s, metadata.TypeManual))
		}
		db, _ := fusionFixture(hits)
		e := newTestEngine(db, 15)

		res, err := e.Search(context.Background(), "org-1", "", "q", query.QueryAnalysis{Intent: query.IntentGeneral})

		require.NoError(t, err)
		assert.Equal(t, tc.want, res.ContextQuality, "sims %v", tc.sims)
	}
}

func TestSearchEmbeddingFailure(t *testing.T) {
	db, _ := fusionFixture(nil)
	e := newTestEngine(db, 15)
	e.embedder = &testutil.FakeEmbedder{EmbedFn: func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, assert.AnError
	}}

	_, err := e.Search(context.Background(), "org-1", "", "q", query.QueryAnalysis{})

	var ee *core.EmbeddingServiceError
	assert.ErrorAs(t, err, &ee)
}

func TestSearchGraphFailureDegrades(t *testing.T) {
	db, _ := fusionFixture([]core.ScoredChunk{hit("chunk", 0.9, metadata.TypeManual)})
	db.GetAssetByIDFn = func(_ context.Context, _, _ string) (*models.Asset, error) {
		return nil, assert.AnError
	}
	e := newTestEngine(db, 15)

	analysis := query.QueryAnalysis{Intent: query.IntentTroubleshooting, SearchDependencies: true}
	res, err := e.Search(context.Background(), "org-1", "cmp", "q", analysis)

	require.NoError(t, err)
	assert.Equal(t, []string{SourceManual}, res.SourceTypes)
}
