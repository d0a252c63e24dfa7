package search

import (
	"context"
	"sort"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/graph"
	"github.com/maintexa-ai/maintexa/internal/core/metadata"
	"github.com/maintexa-ai/maintexa/internal/core/query"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// Source types a context item can carry.
const (
	SourceManual     = "manual"
	SourceSchematic  = "schematic"
	SourceDependency = "dependency"
	SourceHierarchy  = "hierarchy"
)

// Context quality buckets, derived from mean similarity.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// ContextSource is one labeled piece of retrieved context.
type ContextSource struct {
	SourceType string  `json:"source_type"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
	AssetName  string  `json:"asset_name,omitempty"`
	PageNumber int     `json:"page_number,omitempty"`
	Section    string  `json:"section,omitempty"`
}

// FusionResult is the bounded context bundle handed to prompt assembly.
type FusionResult struct {
	Sources        []ContextSource `json:"sources"`
	SourceTypes    []string        `json:"source_types"`
	AvgRelevance   float64         `json:"avg_relevance"`
	ContextQuality string          `json:"context_quality"`
}

// Engine fuses vector hits with graph and hierarchy context.
type Engine struct {
	db         core.DbClient
	embedder   core.EmbeddingProvider
	traverser  *graph.Traverser
	hierarchy  *graph.HierarchyResolver
	maxResults int
	log        *logger.Logger
}

func NewEngine(
	db core.DbClient,
	embedder core.EmbeddingProvider,
	traverser *graph.Traverser,
	hierarchy *graph.HierarchyResolver,
	maxResults int,
	log *logger.Logger,
) *Engine {
	if maxResults <= 0 {
		maxResults = 15
	}
	return &Engine{
		db: db, embedder: embedder, traverser: traverser,
		hierarchy: hierarchy, maxResults: maxResults, log: log,
	}
}

// Search embeds the (alias-resolved) query, runs the scoped vector search
// with the intent-derived type filter, folds in synthetic dependency and
// hierarchy sources when the analysis asks for them, and bounds the result.
// Graph and hierarchy failures degrade the bundle instead of failing it.
func (e *Engine) Search(ctx context.Context, orgID, assetID, message string, analysis query.QueryAnalysis) (*FusionResult, error) {
	vecs, err := e.embedder.EmbedTexts(ctx, []string{message})
	if err != nil {
		return nil, &core.EmbeddingServiceError{Err: err}
	}

	filter := core.ChunkSearchFilter{
		OrganizationID: orgID,
		AssetID:        assetID,
		DocumentTypes:  typeFilter(analysis),
		Limit:          e.maxResults,
	}
	hits, err := e.db.SearchChunks(ctx, vecs[0], filter)
	if err != nil {
		return nil, &core.PersistenceError{Op: "chunk search", Err: err}
	}

	res := &FusionResult{}
	for _, h := range hits {
		res.Sources = append(res.Sources, ContextSource{
			SourceType: chunkSourceType(h),
			Content:    h.Chunk.Content,
			Similarity: h.Similarity,
			AssetName:  h.AssetName,
			PageNumber: h.Chunk.PageNumber,
			Section:    h.Chunk.SectionName,
		})
	}

	if analysis.SearchDependencies && assetID != "" {
		if trav, err := e.traverser.Traverse(ctx, orgID, assetID); err != nil {
			e.log.Warn("dependency context unavailable", "asset", assetID, "error", err)
		} else if len(trav.Merged) > 0 {
			res.Sources = append(res.Sources, ContextSource{
				SourceType: SourceDependency,
				Content:    trav.Render(),
				Similarity: syntheticSimilarity,
				AssetName:  trav.TargetName,
			})
		}
	}

	if assetID != "" {
		if hc, err := e.hierarchy.Resolve(ctx, orgID, assetID); err != nil {
			e.log.Warn("hierarchy context unavailable", "asset", assetID, "error", err)
		} else {
			res.Sources = append(res.Sources, ContextSource{
				SourceType: SourceHierarchy,
				Content:    hc.Render(),
				Similarity: syntheticSimilarity,
				AssetName:  hc.Asset.Name,
			})
		}
	}

	sort.SliceStable(res.Sources, func(i, j int) bool {
		return res.Sources[i].Similarity > res.Sources[j].Similarity
	})
	if len(res.Sources) > e.maxResults {
		res.Sources = res.Sources[:e.maxResults]
	}

	res.SourceTypes = distinctTypes(res.Sources)
	res.AvgRelevance = meanSimilarity(res.Sources)
	res.ContextQuality = qualityBucket(res.AvgRelevance)
	return res, nil
}

// syntheticSimilarity ranks graph/hierarchy blocks above weak chunk hits but
// below strong ones.
const syntheticSimilarity = 0.75

// typeFilter narrows which document types the vector search considers. A nil
// filter means all types.
func typeFilter(a query.QueryAnalysis) []string {
	var types []string
	switch a.Intent {
	case query.IntentTroubleshooting:
		types = []string{metadata.TypeManual, metadata.TypeMaintenance, metadata.TypeOperations}
	case query.IntentMaintenance:
		types = []string{metadata.TypeMaintenance, metadata.TypeManual}
	case query.IntentParts:
		types = []string{metadata.TypePartsList, metadata.TypeManual}
	case query.IntentProcedure:
		types = []string{metadata.TypeManual, metadata.TypeInstallation, metadata.TypeOperations}
	case query.IntentSpecs:
		types = []string{metadata.TypeManual, metadata.TypeSchematic}
	default:
		return nil
	}
	if a.SearchSchematics {
		types = appendUnique(types, metadata.TypeSchematic)
	}
	return types
}

func chunkSourceType(h core.ScoredChunk) string {
	for _, t := range h.DocumentTypes {
		if t == metadata.TypeSchematic {
			return SourceSchematic
		}
	}
	return SourceManual
}

func distinctTypes(sources []ContextSource) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range sources {
		if !seen[s.SourceType] {
			seen[s.SourceType] = true
			out = append(out, s.SourceType)
		}
	}
	return out
}

func meanSimilarity(sources []ContextSource) float64 {
	if len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += s.Similarity
	}
	return sum / float64(len(sources))
}

func qualityBucket(avg float64) string {
	switch {
	case avg >= 0.75:
		return QualityHigh
	case avg >= 0.55:
		return QualityMedium
	default:
		return QualityLow
	}
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
