package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// Extraction methods, cheapest tier first.
const (
	MethodCache   = "cache"
	MethodPattern = "pattern"
	MethodAI      = "ai"
)

// acceptThreshold is the confidence at which a cheaper tier short-circuits
// the more expensive ones.
const acceptThreshold = 0.7

// Extractor resolves equipment identity from document text with as few AI
// calls as possible: content-hash cache, then patterns, then the model.
type Extractor struct {
	db  core.DbClient
	llm core.LLMProvider
	log *logger.Logger
}

func NewExtractor(db core.DbClient, llm core.LLMProvider, log *logger.Logger) *Extractor {
	return &Extractor{db: db, llm: llm, log: log}
}

// Extract returns the equipment identity for the given content. The result
// is always usable; AI failures degrade to the pattern tier, and an empty
// pattern tier degrades to the filename.
func (e *Extractor) Extract(ctx context.Context, contentHash, text, filename string) (*models.CachedMetadata, error) {
	// Tier 1: content-addressed cache, zero cost.
	if cached, err := e.db.GetCachedMetadata(ctx, contentHash); err != nil {
		e.log.Warn("metadata cache lookup failed", "error", err)
	} else if cached != nil && cached.Confidence >= acceptThreshold {
		e.log.Debug("metadata cache hit", "hash", contentHash, "method", cached.ExtractionMethod)
		return cached, nil
	}

	// Tier 2: pattern matching over the document head.
	pat := ExtractPatterns(text)
	if pat.Manufacturer == "" && pat.Model == "" && pat.EquipmentName == "" {
		pat = FromFilename(filename)
	}
	if pat.Manufacturer != "" && pat.Model != "" && pat.Confidence >= acceptThreshold {
		meta := e.toCached(contentHash, pat, MethodPattern)
		e.cache(ctx, meta)
		return meta, nil
	}

	// Tier 3: AI-assisted, seeded with the pattern hints.
	meta, err := e.extractWithAI(ctx, contentHash, text, pat)
	if err != nil {
		e.log.Warn("falling back to pattern metadata", "error", err)
		meta = e.toCached(contentHash, pat, MethodPattern)
	}
	e.cache(ctx, meta)
	return meta, nil
}

type aiIdentity struct {
	Manufacturer  string  `json:"manufacturer"`
	Model         string  `json:"model"`
	EquipmentName string  `json:"equipment_name"`
	Category      string  `json:"category"`
	Confidence    float64 `json:"confidence"`
}

func (e *Extractor) extractWithAI(ctx context.Context, contentHash, text string, hints PatternResult) (*models.CachedMetadata, error) {
	head := text
	if len(head) > patternWindow {
		head = head[:patternWindow]
	}

	var hintLines []string
	if hints.Manufacturer != "" {
		hintLines = append(hintLines, "likely manufacturer: "+hints.Manufacturer)
	}
	if hints.Model != "" {
		hintLines = append(hintLines, "likely model: "+hints.Model)
	}
	if hints.EquipmentName != "" {
		hintLines = append(hintLines, "likely equipment: "+hints.EquipmentName)
	}
	hintBlock := "none"
	if len(hintLines) > 0 {
		hintBlock = strings.Join(hintLines, "\n")
	}

	const system = `You extract equipment identity from industrial manuals.
Reply with only a JSON object:
{"manufacturer": "", "model": "", "equipment_name": "", "category": "", "confidence": 0.0}
Confirm or correct the hints; leave a field empty when the text does not support it.`

	user := fmt.Sprintf("Hints:\n%s\n\nDocument start:\n%s", hintBlock, head)

	reply, err := e.llm.Generate(ctx, system, user)
	if err != nil {
		return nil, &core.MetadataExtractionFailure{Err: err}
	}

	payload, err := SalvageJSON(reply)
	if err != nil {
		return nil, &core.MetadataExtractionFailure{Err: err}
	}
	var id aiIdentity
	if err := json.Unmarshal([]byte(payload), &id); err != nil {
		return nil, &core.MetadataExtractionFailure{Err: err}
	}

	// The model confirms hints it was given; never let it lower a strong
	// pattern hit to nothing.
	if id.Manufacturer == "" {
		id.Manufacturer = hints.Manufacturer
	}
	if id.Model == "" {
		id.Model = hints.Model
	}
	if id.EquipmentName == "" {
		id.EquipmentName = hints.EquipmentName
	}
	if id.Confidence <= 0 {
		id.Confidence = 0.5
	}

	return &models.CachedMetadata{
		ContentHash:      contentHash,
		Manufacturer:     id.Manufacturer,
		Model:            id.Model,
		EquipmentName:    id.EquipmentName,
		Category:         id.Category,
		Confidence:       id.Confidence,
		ExtractionMethod: MethodAI,
	}, nil
}

func (e *Extractor) toCached(contentHash string, pat PatternResult, method string) *models.CachedMetadata {
	return &models.CachedMetadata{
		ContentHash:      contentHash,
		Manufacturer:     pat.Manufacturer,
		Model:            pat.Model,
		EquipmentName:    pat.EquipmentName,
		Category:         pat.Category,
		Confidence:       pat.Confidence,
		ExtractionMethod: method,
	}
}

func (e *Extractor) cache(ctx context.Context, meta *models.CachedMetadata) {
	if err := e.db.UpsertCachedMetadata(ctx, meta); err != nil {
		e.log.Warn("metadata cache write failed", "hash", meta.ContentHash, "error", err)
	}
}
