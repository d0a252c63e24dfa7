package query

import (
	"context"
	"sort"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// Detection modes.
const (
	ModeNone   = "none"
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Match kinds, strongest first.
const (
	MatchName  = "name"
	MatchCode  = "code"
	MatchAlias = "alias"
	MatchFuzzy = "fuzzy"
)

// DetectedEquipment is one candidate asset scored against the query.
type DetectedEquipment struct {
	AssetID    string  `json:"asset_id"`
	Name       string  `json:"name"`
	MatchedOn  string  `json:"matched_on"`
	MatchText  string  `json:"match_text"`
	Confidence float64 `json:"confidence"`
}

// DetectionResult classifies what the query is about. In multi mode the
// primary is the highest-confidence candidate; the rest stay available for
// disambiguation.
type DetectionResult struct {
	Mode       string              `json:"mode"`
	Primary    *DetectedEquipment  `json:"primary,omitempty"`
	Candidates []DetectedEquipment `json:"candidates,omitempty"`
}

// Detector finds which asset a free-text query refers to when the caller has
// not pre-selected one.
type Detector struct {
	db        core.DbClient
	threshold float64
	log       *logger.Logger
}

func NewDetector(db core.DbClient, threshold float64, log *logger.Logger) *Detector {
	return &Detector{db: db, threshold: threshold, log: log}
}

// Detect scores every asset in tenant scope against the query, in priority
// order: exact name substring, asset code, alias, then word-overlap fuzzy
// similarity against name and aliases. Candidates are deduplicated by asset
// keeping the best match.
func (d *Detector) Detect(ctx context.Context, orgID, message string) (DetectionResult, error) {
	assets, err := d.db.ListAssetsByOrg(ctx, orgID)
	if err != nil {
		return DetectionResult{Mode: ModeNone}, err
	}
	aliases, err := d.db.ListAliasesByOrg(ctx, orgID)
	if err != nil {
		d.log.Warn("alias listing failed, detecting on names only", "error", err)
		aliases = nil
	}

	aliasesByAsset := make(map[string][]models.AssetAlias)
	for _, al := range aliases {
		aliasesByAsset[al.AssetID] = append(aliasesByAsset[al.AssetID], al)
	}

	normalized := " " + Normalize(message) + " "
	words := Tokenize(message)

	best := make(map[string]DetectedEquipment)
	consider := func(c DetectedEquipment) {
		if prev, ok := best[c.AssetID]; !ok || c.Confidence > prev.Confidence {
			best[c.AssetID] = c
		}
	}

	for _, asset := range assets {
		name := Normalize(asset.Name)
		if name != "" && strings.Contains(normalized, " "+name+" ") {
			consider(DetectedEquipment{
				AssetID: asset.ID, Name: asset.Name,
				MatchedOn: MatchName, MatchText: asset.Name, Confidence: 0.95,
			})
			continue
		}
		if code := Normalize(asset.Code); code != "" && strings.Contains(normalized, " "+code+" ") {
			consider(DetectedEquipment{
				AssetID: asset.ID, Name: asset.Name,
				MatchedOn: MatchCode, MatchText: asset.Code, Confidence: 0.9,
			})
			continue
		}
		if al, ok := matchAlias(normalized, aliasesByAsset[asset.ID]); ok {
			consider(DetectedEquipment{
				AssetID: asset.ID, Name: asset.Name,
				MatchedOn: MatchAlias, MatchText: al, Confidence: 0.85,
			})
			continue
		}

		phrases := []string{asset.Name}
		for _, al := range aliasesByAsset[asset.ID] {
			phrases = append(phrases, al.Alias)
		}
		if text, score := bestFuzzy(words, phrases); score >= d.threshold {
			consider(DetectedEquipment{
				AssetID: asset.ID, Name: asset.Name,
				MatchedOn: MatchFuzzy, MatchText: text, Confidence: score,
			})
		}
	}

	candidates := make([]DetectedEquipment, 0, len(best))
	for _, c := range best {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].AssetID < candidates[j].AssetID
	})

	switch len(candidates) {
	case 0:
		return DetectionResult{Mode: ModeNone}, nil
	case 1:
		return DetectionResult{Mode: ModeSingle, Primary: &candidates[0], Candidates: candidates}, nil
	default:
		return DetectionResult{Mode: ModeMulti, Primary: &candidates[0], Candidates: candidates}, nil
	}
}

func matchAlias(normalizedQuery string, aliases []models.AssetAlias) (string, bool) {
	for _, al := range aliases {
		needle := al.Normalized
		if needle == "" {
			needle = Normalize(al.Alias)
		}
		if needle != "" && strings.Contains(normalizedQuery, " "+needle+" ") {
			return al.Alias, true
		}
	}
	return "", false
}

func bestFuzzy(queryWords []string, phrases []string) (string, float64) {
	bestText, bestScore := "", 0.0
	for _, p := range phrases {
		if s := wordOverlapSimilarity(queryWords, p); s > bestScore {
			bestText, bestScore = p, s
		}
	}
	return bestText, bestScore
}
