package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/query"
	"github.com/maintexa-ai/maintexa/internal/core/search"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// Turn is one prior exchange in the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one technician question. AssetID is optional; when absent the
// equipment detector picks the asset from the message itself.
type Request struct {
	OrganizationID string
	AssetID        string
	Message        string
	History        []Turn
}

// AnalysisMeta is the understanding summary returned with the answer.
type AnalysisMeta struct {
	Intent         string `json:"intent"`
	Urgency        string `json:"urgency"`
	ResponseFormat string `json:"response_format"`
}

// SearchMeta summarizes what retrieval contributed.
type SearchMeta struct {
	SourcesUsed    int      `json:"sources_used"`
	SourceTypes    []string `json:"source_types"`
	AvgRelevance   float64  `json:"avg_relevance"`
	ContextQuality string   `json:"context_quality"`
}

// Metadata is the terminal payload after the last text delta.
type Metadata struct {
	Analysis  AnalysisMeta           `json:"analysis"`
	Search    SearchMeta             `json:"search"`
	Detection *query.DetectionResult `json:"detection,omitempty"`
}

// Event is one element of the response stream: a text delta, the terminal
// metadata, or an error. Exactly one of the fields is set.
type Event struct {
	Delta    string
	Metadata *Metadata
	Err      error
}

// Service answers technician questions with retrieval-grounded streaming
// completions.
type Service struct {
	db       core.DbClient
	llm      core.LLMProvider
	analyzer *query.Analyzer
	aliases  *query.AliasResolver
	detector *query.Detector
	engine   *search.Engine
	log      *logger.Logger
}

func NewService(
	db core.DbClient,
	llm core.LLMProvider,
	analyzer *query.Analyzer,
	aliases *query.AliasResolver,
	detector *query.Detector,
	engine *search.Engine,
	log *logger.Logger,
) *Service {
	return &Service{
		db: db, llm: llm, analyzer: analyzer, aliases: aliases,
		detector: detector, engine: engine, log: log,
	}
}

// Stream runs understanding, retrieval and generation for one request. The
// returned channel delivers text deltas in order, then a single Metadata
// event, then closes. Cancelling ctx stops the model stream.
func (s *Service) Stream(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event, 8)
	go func() {
		defer close(out)
		s.stream(ctx, req, out)
	}()
	return out
}

func (s *Service) stream(ctx context.Context, req Request, out chan<- Event) {
	emit := func(ev Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	resolved := s.aliases.Resolve(ctx, req.OrganizationID, req.Message)
	message := resolved.Rewritten

	assetID := req.AssetID
	var detection *query.DetectionResult
	if assetID == "" {
		det, err := s.detector.Detect(ctx, req.OrganizationID, message)
		if err != nil {
			s.log.Warn("equipment detection failed, answering generally", "error", err)
		} else {
			detection = &det
			if det.Primary != nil {
				assetID = det.Primary.AssetID
			}
		}
	}

	var assetCtx *query.AssetContext
	if assetID != "" {
		ac, err := query.BuildAssetContext(ctx, s.db, req.OrganizationID, assetID)
		if err != nil {
			s.log.Warn("asset context unavailable", "asset", assetID, "error", err)
		} else {
			assetCtx = ac
		}
	}

	analysis := s.analyzer.Analyze(ctx, message, assetCtx)

	var fusion *search.FusionResult
	if assetID != "" {
		f, err := s.engine.Search(ctx, req.OrganizationID, assetID, message, analysis)
		if err != nil {
			s.log.Warn("context retrieval failed, answering from the model alone", "error", err)
		} else {
			fusion = f
		}
	}

	system, user := buildPrompt(req, message, analysis, assetCtx, fusion)

	deltas, errs := s.llm.GenerateStream(ctx, system, user)
	for deltas != nil || errs != nil {
		select {
		case d, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			if !emit(Event{Delta: d}) {
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				emit(Event{Err: err})
				return
			}
		case <-ctx.Done():
			return
		}
	}

	meta := &Metadata{
		Analysis: AnalysisMeta{
			Intent:         analysis.Intent,
			Urgency:        analysis.Urgency,
			ResponseFormat: analysis.ResponseFormat,
		},
		Detection: detection,
	}
	if fusion != nil {
		meta.Search = SearchMeta{
			SourcesUsed:    len(fusion.Sources),
			SourceTypes:    fusion.SourceTypes,
			AvgRelevance:   fusion.AvgRelevance,
			ContextQuality: fusion.ContextQuality,
		}
	}
	emit(Event{Metadata: meta})
}

func buildPrompt(req Request, message string, analysis query.QueryAnalysis, assetCtx *query.AssetContext, fusion *search.FusionResult) (system, user string) {
	var sys strings.Builder
	sys.WriteString("You are a maintenance assistant for industrial equipment technicians. ")
	sys.WriteString("Answer only from the provided documentation context; when the context does not cover the question, say so plainly. ")
	switch analysis.ResponseFormat {
	case "steps":
		sys.WriteString("Answer as a numbered list of concrete steps. ")
	case "table":
		sys.WriteString("Answer as a compact table where it fits the data. ")
	}
	if analysis.SafetyWarnings {
		sys.WriteString("Lead with applicable safety warnings (lockout/tagout, stored energy, hot surfaces). ")
	}
	if analysis.Urgency == query.UrgencyEmergency {
		sys.WriteString("This is an emergency: be brief and actionable, most likely cause first. ")
	}

	var b strings.Builder
	if assetCtx != nil {
		fmt.Fprintf(&b, "Equipment: %s", assetCtx.Name)
		if assetCtx.Category != "" {
			fmt.Fprintf(&b, " (%s)", assetCtx.Category)
		}
		b.WriteString("\n\n")
	}
	if fusion != nil && len(fusion.Sources) > 0 {
		b.WriteString("Documentation context:\n")
		for i, src := range fusion.Sources {
			fmt.Fprintf(&b, "[%d] (%s", i+1, src.SourceType)
			if src.PageNumber > 0 {
				fmt.Fprintf(&b, ", page %d", src.PageNumber)
			}
			if src.Section != "" {
				fmt.Fprintf(&b, ", %s", src.Section)
			}
			b.WriteString(")\n")
			b.WriteString(src.Content)
			b.WriteString("\n---\n")
		}
		b.WriteString("\n")
	}
	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range req.History {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s", message)
	return sys.String(), b.String()
}
