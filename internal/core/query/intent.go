package query

import "strings"

// Query intents. The detected intent narrows which document source types the
// search layer considers.
const (
	IntentTroubleshooting = "troubleshooting"
	IntentMaintenance     = "maintenance"
	IntentParts           = "parts"
	IntentProcedure       = "procedure"
	IntentSpecs           = "specs"
	IntentGeneral         = "general"
)

var intentKeywords = map[string][]string{
	IntentTroubleshooting: {
		"not working", "doesn't work", "won't start", "wont start", "broken",
		"fault", "failure", "failing", "error", "alarm", "problem", "issue",
		"stopped", "leaking", "leak", "noise", "noisy", "vibration",
		"overheating", "tripping", "trips", "stuck", "diagnose",
	},
	IntentMaintenance: {
		"maintenance", "service", "servicing", "inspect", "inspection",
		"lubricate", "lubrication", "grease", "oil change", "filter change",
		"preventive", "scheduled", "interval", "calibrate", "calibration",
	},
	IntentParts: {
		"part", "parts", "spare", "spares", "replacement", "order",
		"part number", "catalog", "component number", "consumable",
	},
	IntentProcedure: {
		"how to", "how do i", "steps", "procedure", "instructions",
		"install", "installation", "remove", "removal", "replace",
		"disassemble", "assemble", "setup", "set up", "start up", "shutdown",
	},
	IntentSpecs: {
		"specification", "specifications", "specs", "rating", "rated",
		"capacity", "pressure", "voltage", "amperage", "power", "torque",
		"dimensions", "weight", "clearance", "tolerance", "max", "maximum",
	},
}

// IntentResult is one scored intent with the keywords that matched it.
type IntentResult struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Matched    []string `json:"matched_keywords,omitempty"`
}

// DetectIntent scores the query against each intent's keyword list and
// returns the winner. A query matching nothing is general with low
// confidence; ties resolve in favor of troubleshooting, which is the
// costlier intent to miss.
func DetectIntent(message string) IntentResult {
	normalized := " " + Normalize(message) + " "

	best := IntentResult{Intent: IntentGeneral, Confidence: 0.3}
	bestHits := 0
	for _, intent := range []string{
		IntentTroubleshooting, IntentMaintenance, IntentParts,
		IntentProcedure, IntentSpecs,
	} {
		var matched []string
		for _, kw := range intentKeywords[intent] {
			if strings.Contains(normalized, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) > bestHits {
			bestHits = len(matched)
			best = IntentResult{
				Intent:     intent,
				Confidence: intentConfidence(len(matched)),
				Matched:    matched,
			}
		}
	}
	return best
}

func intentConfidence(hits int) float64 {
	c := 0.5 + 0.15*float64(hits)
	if c > 0.95 {
		c = 0.95
	}
	return c
}
