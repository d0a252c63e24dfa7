package query

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/core/metadata"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// Urgency levels.
const (
	UrgencyEmergency = "emergency"
	UrgencyHigh      = "high"
	UrgencyNormal    = "normal"
)

// Analysis methods.
const (
	AnalysisQuick = "quick"
	AnalysisFull  = "full"
)

// QueryAnalysis is the per-request understanding of one chat message. The
// quick fields come from heuristics; the scope/format/flag fields are filled
// by the full tier or derived defaults.
type QueryAnalysis struct {
	Intent             string   `json:"intent"`
	IntentConfidence   float64  `json:"intent_confidence"`
	Urgency            string   `json:"urgency"`
	Scope              string   `json:"scope"`
	Components         []string `json:"components,omitempty"`
	ErrorCodes         []string `json:"error_codes,omitempty"`
	SearchSchematics   bool     `json:"search_schematics"`
	SearchDependencies bool     `json:"search_dependencies"`
	ResponseFormat     string   `json:"response_format"`
	SafetyWarnings     bool     `json:"safety_warnings"`
	IncludePartsList   bool     `json:"include_parts_list"`
	Method             string   `json:"method"`
}

// AssetContext seeds the full analysis prompt with what is already known
// about the asset under discussion.
type AssetContext struct {
	Name     string
	Level    string
	Category string
	Children []string
	Aliases  []string
}

var (
	errCodeRe = regexp.MustCompile(`\b[A-Z]{1,4}[- ]?\d{2,5}\b`)

	emergencyWords = []string{
		"emergency", "urgent", "immediately", "asap", "fire", "smoke",
		"sparking", "flooding", "injury", "danger", "production down",
		"line down", "line is down", "everything stopped",
	}
	highUrgencyWords = []string{
		"quickly", "soon", "today", "critical", "stopped", "down",
	}
	componentWords = []string{
		"motor", "pump", "valve", "filter", "belt", "bearing", "seal",
		"gasket", "sensor", "switch", "relay", "fuse", "breaker", "hose",
		"fitting", "coupling", "gearbox", "compressor", "fan", "impeller",
		"solenoid", "actuator", "cylinder", "piston", "nozzle", "regulator",
		"thermostat", "contactor", "drive", "inverter", "chain", "sprocket",
	}
	schematicWords = []string{
		"wiring", "schematic", "diagram", "circuit", "electrical",
		"terminal", "pinout", "connection",
	}
	dependencyWords = []string{
		"upstream", "downstream", "feeds", "supplies", "connected",
		"other machines", "line", "affects", "caused by",
	}
)

// QuickAnalyze runs the no-cost heuristic tier. It is always run; the full
// tier refines its output when triggered.
func QuickAnalyze(message string) QueryAnalysis {
	normalized := Normalize(message)
	intent := DetectIntent(message)

	a := QueryAnalysis{
		Intent:           intent.Intent,
		IntentConfidence: intent.Confidence,
		Urgency:          UrgencyNormal,
		Scope:            "asset",
		ResponseFormat:   defaultFormat(intent.Intent),
		Method:           AnalysisQuick,
	}

	for _, w := range emergencyWords {
		if strings.Contains(normalized, w) {
			a.Urgency = UrgencyEmergency
			break
		}
	}
	if a.Urgency == UrgencyNormal {
		for _, w := range highUrgencyWords {
			if strings.Contains(normalized, w) {
				a.Urgency = UrgencyHigh
				break
			}
		}
	}

	for _, w := range componentWords {
		if strings.Contains(normalized, w) {
			a.Components = append(a.Components, w)
		}
	}
	a.ErrorCodes = errCodeRe.FindAllString(message, -1)

	for _, w := range schematicWords {
		if strings.Contains(normalized, w) {
			a.SearchSchematics = true
			break
		}
	}
	for _, w := range dependencyWords {
		if strings.Contains(normalized, w) {
			a.SearchDependencies = true
			break
		}
	}
	// Troubleshooting usually needs both extra source types.
	if a.Intent == IntentTroubleshooting {
		a.SearchSchematics = true
		a.SearchDependencies = true
		a.SafetyWarnings = true
	}
	if a.Intent == IntentParts {
		a.IncludePartsList = true
	}
	return a
}

func defaultFormat(intent string) string {
	switch intent {
	case IntentTroubleshooting, IntentProcedure:
		return "steps"
	case IntentSpecs, IntentParts:
		return "table"
	default:
		return "prose"
	}
}

// Analyzer runs the full AI tier on top of QuickAnalyze.
type Analyzer struct {
	llm           core.LLMProvider
	triggerLength int
	log           *logger.Logger
}

func NewAnalyzer(llm core.LLMProvider, triggerLength int, log *logger.Logger) *Analyzer {
	return &Analyzer{llm: llm, triggerLength: triggerLength, log: log}
}

// needsFull reports whether the quick result warrants spending an AI call.
func (a *Analyzer) needsFull(quick QueryAnalysis, message string) bool {
	return quick.Intent == IntentTroubleshooting ||
		quick.Urgency == UrgencyEmergency ||
		len(message) > a.triggerLength
}

// Analyze returns the richest analysis available: the full tier when the
// query warrants it and the model cooperates, the quick tier otherwise. It
// never fails the request.
func (a *Analyzer) Analyze(ctx context.Context, message string, asset *AssetContext) QueryAnalysis {
	quick := QuickAnalyze(message)
	if !a.needsFull(quick, message) {
		return quick
	}

	full, err := a.analyzeWithAI(ctx, message, asset, quick)
	if err != nil {
		a.log.Warn("full query analysis failed, using quick tier", "error", err)
		return quick
	}
	return full
}

const analyzeSystemPrompt = `You analyze maintenance technician queries about industrial equipment.
Respond with a single JSON object, no prose:
{"intent":"troubleshooting|maintenance|parts|procedure|specs|general",
"urgency":"emergency|high|normal",
"scope":"component|asset|line|site",
"components":["..."],"error_codes":["..."],
"search_schematics":true,"search_dependencies":true,
"response_format":"steps|table|prose",
"safety_warnings":true,"include_parts_list":false}`

func (a *Analyzer) analyzeWithAI(ctx context.Context, message string, asset *AssetContext, quick QueryAnalysis) (QueryAnalysis, error) {
	var b strings.Builder
	if asset != nil {
		fmt.Fprintf(&b, "Equipment under discussion: %s (level %s", asset.Name, asset.Level)
		if asset.Category != "" {
			fmt.Fprintf(&b, ", category %s", asset.Category)
		}
		b.WriteString(")\n")
		if len(asset.Children) > 0 {
			fmt.Fprintf(&b, "Sub-components: %s\n", strings.Join(asset.Children, ", "))
		}
		if len(asset.Aliases) > 0 {
			fmt.Fprintf(&b, "Also known as: %s\n", strings.Join(asset.Aliases, ", "))
		}
	}
	fmt.Fprintf(&b, "Technician query: %s", message)

	raw, err := a.llm.Generate(ctx, analyzeSystemPrompt, b.String())
	if err != nil {
		return quick, err
	}
	blob, err := metadata.SalvageJSON(raw)
	if err != nil {
		return quick, err
	}

	var parsed struct {
		Intent             string   `json:"intent"`
		Urgency            string   `json:"urgency"`
		Scope              string   `json:"scope"`
		Components         []string `json:"components"`
		ErrorCodes         []string `json:"error_codes"`
		SearchSchematics   bool     `json:"search_schematics"`
		SearchDependencies bool     `json:"search_dependencies"`
		ResponseFormat     string   `json:"response_format"`
		SafetyWarnings     bool     `json:"safety_warnings"`
		IncludePartsList   bool     `json:"include_parts_list"`
	}
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		return quick, err
	}

	full := quick
	full.Method = AnalysisFull
	if validIntent(parsed.Intent) {
		full.Intent = parsed.Intent
		full.IntentConfidence = 0.9
	}
	if parsed.Urgency == UrgencyEmergency || parsed.Urgency == UrgencyHigh || parsed.Urgency == UrgencyNormal {
		full.Urgency = parsed.Urgency
	}
	if parsed.Scope != "" {
		full.Scope = parsed.Scope
	}
	if len(parsed.Components) > 0 {
		full.Components = parsed.Components
	}
	if len(parsed.ErrorCodes) > 0 {
		full.ErrorCodes = parsed.ErrorCodes
	}
	full.SearchSchematics = full.SearchSchematics || parsed.SearchSchematics
	full.SearchDependencies = full.SearchDependencies || parsed.SearchDependencies
	if parsed.ResponseFormat != "" {
		full.ResponseFormat = parsed.ResponseFormat
	}
	full.SafetyWarnings = full.SafetyWarnings || parsed.SafetyWarnings
	full.IncludePartsList = full.IncludePartsList || parsed.IncludePartsList
	return full, nil
}

func validIntent(s string) bool {
	switch s {
	case IntentTroubleshooting, IntentMaintenance, IntentParts,
		IntentProcedure, IntentSpecs, IntentGeneral:
		return true
	}
	return false
}

// BuildAssetContext loads the prompt-seeding context for an asset.
func BuildAssetContext(ctx context.Context, db core.DbClient, orgID, assetID string) (*AssetContext, error) {
	asset, err := db.GetAssetByID(ctx, orgID, assetID)
	if err != nil || asset == nil {
		return nil, err
	}
	ac := &AssetContext{Name: asset.Name, Level: asset.Level, Category: asset.Category}

	children, err := db.ListChildAssets(ctx, orgID, assetID)
	if err == nil {
		for _, c := range children {
			ac.Children = append(ac.Children, c.Name)
		}
	}
	aliases, err := db.ListAliasesByAsset(ctx, assetID)
	if err == nil {
		for _, al := range aliases {
			ac.Aliases = append(ac.Aliases, al.Alias)
		}
	}
	return ac, nil
}
