package metadata

import (
	"regexp"
	"strings"
)

// PatternResult is what the zero-cost extraction tier recovers from the
// opening pages of a manual.
type PatternResult struct {
	Manufacturer  string
	Model         string
	EquipmentName string
	Category      string
	Confidence    float64
}

// patternWindow bounds how much of the document the pattern tier reads.
// Identity information lives on the cover and first pages of a manual.
const patternWindow = 4000

// Known manufacturers whose name on a cover page is a near-certain signal.
var knownManufacturers = []string{
	"FIAC", "Atlas Copco", "Ingersoll Rand", "Kaeser", "Siemens", "ABB",
	"Grundfos", "KSB", "WEG", "SEW-Eurodrive", "Danfoss", "Festo",
	"Bosch Rexroth", "Schneider Electric", "Parker", "SKF", "Sandvik",
	"Alfa Laval", "GEA", "Sulzer",
}

// Generic equipment words that name what the manual is about.
var equipmentKeywords = map[string]string{
	"compressor":     "compressed air",
	"pump":           "fluid handling",
	"conveyor":       "material handling",
	"chiller":        "cooling",
	"boiler":         "steam",
	"motor":          "drives",
	"gearbox":        "drives",
	"fan":            "ventilation",
	"blower":         "ventilation",
	"valve":          "fluid handling",
	"mixer":          "processing",
	"dryer":          "processing",
	"filter":         "filtration",
	"heat exchanger": "cooling",
	"generator":      "power",
	"turbine":        "power",
	"crane":          "lifting",
	"press":          "forming",
}

var (
	modelFieldRe = regexp.MustCompile(`(?im)^\s*(?:type|model|mod\.?|modell|modello)\s*[:.]?\s+([A-Z0-9][A-Z0-9\-/.]{1,24})\s*$`)
	refFieldRe   = regexp.MustCompile(`(?im)(?:ref\.?|reference|part\s*no\.?|p/n|code)\s*[:.]?\s*([A-Z0-9][A-Z0-9\-/.]{2,24})`)

	// Company suffix next to address or contact markers is how a cover page
	// identifies the maker even when the brand is not in the known list.
	companyRe = regexp.MustCompile(`(?m)([A-Z][A-Za-z0-9&. ]{2,40}?)\s+(?:S\.p\.A\.?|S\.r\.l\.?|GmbH|A/S|AB|BV|Ltd\.?|Inc\.?|S\.A\.?|Co\.,?\s*Ltd\.?)`)
	contactRe = regexp.MustCompile(`(?i)(?:tel|fax|phone|vat|p\.iva|via |strasse|straße|street|road|www\.)`)
)

// ExtractPatterns runs the keyword/regex tier over the head of the document.
func ExtractPatterns(text string) PatternResult {
	if len(text) > patternWindow {
		text = text[:patternWindow]
	}
	var res PatternResult
	score := 0.0
	signals := 0

	lower := strings.ToLower(text)

	for _, m := range knownManufacturers {
		if strings.Contains(lower, strings.ToLower(m)) {
			res.Manufacturer = m
			score += 0.9
			signals++
			break
		}
	}
	if res.Manufacturer == "" {
		if c := companyNearContact(text); c != "" {
			res.Manufacturer = c
			score += 0.6
			signals++
		}
	}

	if m := modelFieldRe.FindStringSubmatch(text); m != nil {
		res.Model = strings.TrimSpace(m[1])
		score += 0.8
		signals++
	} else if m := refFieldRe.FindStringSubmatch(text); m != nil {
		res.Model = strings.TrimSpace(m[1])
		score += 0.5
		signals++
	}

	for kw, category := range equipmentKeywords {
		if strings.Contains(lower, kw) {
			res.EquipmentName = kw
			res.Category = category
			score += 0.5
			signals++
			break
		}
	}

	if signals > 0 {
		res.Confidence = score / float64(signals)
	}
	return res
}

// companyNearContact accepts a company-suffixed name only when contact or
// address markers appear nearby, which filters suppliers quoted in passing.
func companyNearContact(text string) string {
	for _, m := range companyRe.FindAllStringSubmatchIndex(text, -1) {
		name := strings.TrimSpace(text[m[2]:m[3]])
		lo := m[0] - 200
		if lo < 0 {
			lo = 0
		}
		hi := m[1] + 200
		if hi > len(text) {
			hi = len(text)
		}
		if contactRe.MatchString(text[lo:hi]) {
			return name
		}
	}
	return ""
}

// FromFilename is the last-resort identity guess: "Compressor-FIAC.pdf"
// still names the equipment and often the maker.
func FromFilename(filename string) PatternResult {
	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	res := ExtractPatterns(cleaned)
	if res.EquipmentName == "" {
		res.EquipmentName = strings.TrimSpace(cleaned)
	}
	if res.Confidence > 0.4 {
		res.Confidence = 0.4
	}
	return res
}
