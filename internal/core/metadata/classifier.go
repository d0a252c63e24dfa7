package metadata

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/logger"

	"github.com/maintexa-ai/maintexa/internal/core"
)

// Document type labels.
const (
	TypeManual       = "manual"
	TypeSchematic    = "schematic"
	TypeMaintenance  = "maintenance"
	TypePartsList    = "parts_list"
	TypeOperations   = "operations"
	TypeInstallation = "installation"
)

var typeKeywords = map[string][]string{
	TypeSchematic:    {"wiring diagram", "circuit diagram", "schematic", "electrical drawing", "legend", "terminal block"},
	TypeMaintenance:  {"maintenance schedule", "service interval", "lubrication", "inspection", "preventive maintenance", "troubleshooting"},
	TypePartsList:    {"spare parts", "parts list", "part number", "bill of materials", "exploded view", "qty"},
	TypeOperations:   {"operating instructions", "operation manual", "start-up", "startup procedure", "shutdown", "control panel"},
	TypeInstallation: {"installation", "mounting", "commissioning", "foundation", "clearance", "anchor"},
}

// ClassificationResult labels a manual with one or more document types.
type ClassificationResult struct {
	Types      []string
	Confidence float64
	Method     string
}

// Classifier labels documents on the same tiered principle as identity
// extraction: keyword scoring first, the model only when scoring is weak.
type Classifier struct {
	llm core.LLMProvider
	log *logger.Logger
}

func NewClassifier(llm core.LLMProvider, log *logger.Logger) *Classifier {
	return &Classifier{llm: llm, log: log}
}

// ClassifyByKeywords scores each label by keyword hits over the text.
func ClassifyByKeywords(text string) ClassificationResult {
	lower := strings.ToLower(text)
	if len(lower) > 12000 {
		lower = lower[:12000]
	}

	type scored struct {
		label string
		hits  int
	}
	var all []scored
	for label, kws := range typeKeywords {
		hits := 0
		for _, kw := range kws {
			hits += strings.Count(lower, kw)
		}
		if hits > 0 {
			all = append(all, scored{label, hits})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].hits > all[j].hits })

	res := ClassificationResult{Method: MethodPattern}
	totalHits := 0
	for _, s := range all {
		totalHits += s.hits
	}
	for _, s := range all {
		// Keep labels that carry a meaningful share of the evidence.
		if float64(s.hits) >= float64(totalHits)*0.2 {
			res.Types = append(res.Types, s.label)
		}
	}
	if len(res.Types) == 0 {
		res.Types = []string{TypeManual}
		res.Confidence = 0.3
		return res
	}

	res.Confidence = 0.5 + 0.1*float64(min(all[0].hits, 4))
	return res
}

// Classify runs the keyword tier and consults the model only when the
// keyword evidence is weak. Model failures keep the keyword result.
func (c *Classifier) Classify(ctx context.Context, text string) ClassificationResult {
	res := ClassifyByKeywords(text)
	if res.Confidence >= acceptThreshold {
		return res
	}

	const system = `You label industrial equipment manuals.
Reply with only a JSON object: {"types": ["schematic"|"maintenance"|"parts_list"|"operations"|"installation"|"manual"], "confidence": 0.0}`

	head := text
	if len(head) > patternWindow {
		head = head[:patternWindow]
	}
	reply, err := c.llm.Generate(ctx, system, "Document start:\n"+head)
	if err != nil {
		c.log.Warn("type classification fell back to keywords", "error", err)
		return res
	}
	payload, err := SalvageJSON(reply)
	if err != nil {
		c.log.Warn("type classification reply unparsable", "error", err)
		return res
	}
	var ai struct {
		Types      []string `json:"types"`
		Confidence float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(payload), &ai); err != nil || len(ai.Types) == 0 {
		return res
	}

	out := ClassificationResult{Types: validTypes(ai.Types), Confidence: ai.Confidence, Method: MethodAI}
	if len(out.Types) == 0 {
		return res
	}
	if out.Confidence <= 0 {
		out.Confidence = 0.5
	}
	return out
}

func validTypes(in []string) []string {
	var out []string
	for _, t := range in {
		switch t {
		case TypeManual, TypeSchematic, TypeMaintenance, TypePartsList, TypeOperations, TypeInstallation:
			out = append(out, t)
		}
	}
	return out
}
