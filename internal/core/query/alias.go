package query

import (
	"context"
	"sort"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
)

// ResolvedAlias records one jargon term rewritten to its canonical asset
// name.
type ResolvedAlias struct {
	Alias      string  `json:"alias"`
	AssetID    string  `json:"asset_id"`
	AssetName  string  `json:"asset_name"`
	Confidence float64 `json:"confidence"`
}

// ResolvedQuery is the alias-rewritten query plus what was rewritten.
type ResolvedQuery struct {
	Original  string          `json:"original"`
	Rewritten string          `json:"rewritten"`
	Resolved  []ResolvedAlias `json:"resolved,omitempty"`
}

// AliasResolver rewrites shop-floor jargon ("the big komp") to canonical
// asset names before search, so embeddings match manual vocabulary.
type AliasResolver struct {
	db  core.DbClient
	log *logger.Logger
}

func NewAliasResolver(db core.DbClient, log *logger.Logger) *AliasResolver {
	return &AliasResolver{db: db, log: log}
}

// Resolve scans the query for the tenant's known aliases and substitutes
// canonical names. Longer aliases are tried first so "conveyor belt 2" wins
// over "belt". Lookup failure degrades to the untouched query.
func (r *AliasResolver) Resolve(ctx context.Context, orgID, message string) ResolvedQuery {
	out := ResolvedQuery{Original: message, Rewritten: message}

	aliases, err := r.db.ListAliasesByOrg(ctx, orgID)
	if err != nil {
		r.log.Warn("alias lookup failed, query unchanged", "error", err)
		return out
	}
	if len(aliases) == 0 {
		return out
	}

	assetNames, err := r.assetNames(ctx, orgID)
	if err != nil {
		r.log.Warn("asset lookup failed, query unchanged", "error", err)
		return out
	}

	sort.Slice(aliases, func(i, j int) bool {
		return len(aliases[i].Normalized) > len(aliases[j].Normalized)
	})

	normalized := " " + Normalize(message) + " "
	rewritten := message
	for _, al := range aliases {
		needle := al.Normalized
		if needle == "" {
			needle = Normalize(al.Alias)
		}
		if needle == "" || !strings.Contains(normalized, " "+needle+" ") {
			continue
		}
		// Mark the span consumed so shorter aliases don't re-match inside it.
		normalized = strings.Replace(normalized, " "+needle+" ", " ", 1)

		canonical, ok := assetNames[al.AssetID]
		if !ok || strings.EqualFold(canonical, al.Alias) {
			continue
		}
		rewritten = replaceFold(rewritten, al.Alias, canonical)
		conf := 0.8
		if al.IsPrimary {
			conf = 0.95
		}
		out.Resolved = append(out.Resolved, ResolvedAlias{
			Alias:      al.Alias,
			AssetID:    al.AssetID,
			AssetName:  canonical,
			Confidence: conf,
		})
	}
	out.Rewritten = rewritten
	return out
}

func (r *AliasResolver) assetNames(ctx context.Context, orgID string) (map[string]string, error) {
	assets, err := r.db.ListAssetsByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(assets))
	for _, a := range assets {
		names[a.ID] = a.Name
	}
	return names, nil
}

// replaceFold replaces the first case-insensitive occurrence of old in s.
func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	lower, lowerOld := strings.ToLower(s), strings.ToLower(old)
	i := strings.Index(lower, lowerOld)
	if i < 0 {
		return s
	}
	return s[:i] + new + s[i+len(old):]
}
