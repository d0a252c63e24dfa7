package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// DependencySummary is a single-hop neighbor annotated with criticality,
// used for hierarchy context where the full chain would be noise.
type DependencySummary struct {
	AssetID     string `json:"asset_id"`
	Name        string `json:"name"`
	Direction   string `json:"direction"`
	Criticality string `json:"criticality,omitempty"`
	Description string `json:"description,omitempty"`
}

// HierarchyContext situates an asset in the containment tree.
type HierarchyContext struct {
	Asset      *models.Asset       `json:"asset"`
	Path       []models.Asset      `json:"path"`
	Siblings   []models.Asset      `json:"siblings"`
	Children   []models.Asset      `json:"children"`
	Upstream   []DependencySummary `json:"upstream"`
	Downstream []DependencySummary `json:"downstream"`
}

// HierarchyResolver answers "where does this asset sit" for prompts and the
// asset read API.
type HierarchyResolver struct {
	db  core.DbClient
	log *logger.Logger
}

func NewHierarchyResolver(db core.DbClient, log *logger.Logger) *HierarchyResolver {
	return &HierarchyResolver{db: db, log: log}
}

// Resolve loads the root path, siblings, children and single-hop dependency
// summaries for an asset. Partial lookup failures degrade the context rather
// than failing it; only a missing asset is an error.
func (h *HierarchyResolver) Resolve(ctx context.Context, orgID, assetID string) (*HierarchyContext, error) {
	asset, err := h.db.GetAssetByID(ctx, orgID, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, &core.NotFoundError{Kind: "asset", ID: assetID}
	}

	hc := &HierarchyContext{Asset: asset}

	for _, ancestorID := range strings.Split(asset.Path, "/") {
		if ancestorID == "" || ancestorID == asset.ID {
			continue
		}
		ancestor, err := h.db.GetAssetByID(ctx, orgID, ancestorID)
		if err != nil || ancestor == nil {
			h.log.Warn("broken hierarchy path", "asset", assetID, "ancestor", ancestorID)
			continue
		}
		hc.Path = append(hc.Path, *ancestor)
	}

	if asset.ParentID != nil {
		siblings, err := h.db.ListChildAssets(ctx, orgID, *asset.ParentID)
		if err == nil {
			for _, s := range siblings {
				if s.ID != asset.ID {
					hc.Siblings = append(hc.Siblings, s)
				}
			}
		}
	}

	if children, err := h.db.ListChildAssets(ctx, orgID, asset.ID); err == nil {
		hc.Children = children
	}

	hc.Upstream = h.dependencySummaries(ctx, orgID, asset.ID, models.DirectionUpstream)
	hc.Downstream = h.dependencySummaries(ctx, orgID, asset.ID, models.DirectionDownstream)
	return hc, nil
}

func (h *HierarchyResolver) dependencySummaries(ctx context.Context, orgID, assetID, direction string) []DependencySummary {
	deps, err := h.db.ListDependencies(ctx, assetID, direction)
	if err != nil {
		h.log.Warn("dependency summary lookup failed", "asset", assetID, "direction", direction, "error", err)
		return nil
	}
	var out []DependencySummary
	for _, dep := range deps {
		neighbor, err := h.db.GetAssetByID(ctx, orgID, dep.DependsOnID)
		if err != nil || neighbor == nil {
			continue
		}
		out = append(out, DependencySummary{
			AssetID:     neighbor.ID,
			Name:        neighbor.Name,
			Direction:   direction,
			Criticality: neighbor.Criticality,
			Description: dep.Description,
		})
	}
	return out
}

// Render is the compact prompt block: location line, immediate structure,
// and a rule-based hint when critical dependencies are present.
func (hc *HierarchyContext) Render() string {
	var b strings.Builder

	if len(hc.Path) > 0 {
		names := make([]string, 0, len(hc.Path)+1)
		for _, a := range hc.Path {
			names = append(names, a.Name)
		}
		names = append(names, hc.Asset.Name)
		fmt.Fprintf(&b, "Location: %s\n", strings.Join(names, " > "))
	} else {
		fmt.Fprintf(&b, "Location: %s (top level)\n", hc.Asset.Name)
	}

	if len(hc.Children) > 0 {
		fmt.Fprintf(&b, "Sub-components: %s\n", joinNames(hc.Children))
	}
	if len(hc.Siblings) > 0 {
		fmt.Fprintf(&b, "Adjacent equipment: %s\n", joinNames(hc.Siblings))
	}
	for _, d := range hc.Upstream {
		fmt.Fprintf(&b, "Fed by: %s%s\n", d.Name, criticalityTag(d.Criticality))
	}
	for _, d := range hc.Downstream {
		fmt.Fprintf(&b, "Feeds: %s%s\n", d.Name, criticalityTag(d.Criticality))
	}
	if hint := hc.criticalHint(); hint != "" {
		b.WriteString(hint)
	}
	return b.String()
}

func (hc *HierarchyContext) criticalHint() string {
	for _, d := range hc.Upstream {
		if d.Criticality == models.CriticalityCritical {
			return fmt.Sprintf("Note: %s is a critical upstream dependency; rule out its supply before deeper diagnosis.\n", d.Name)
		}
	}
	for _, d := range hc.Downstream {
		if d.Criticality == models.CriticalityCritical {
			return fmt.Sprintf("Note: %s critically depends on this equipment; a fault here propagates to it.\n", d.Name)
		}
	}
	return ""
}

func joinNames(assets []models.Asset) string {
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func criticalityTag(c string) string {
	if c == "" {
		return ""
	}
	return fmt.Sprintf(" (criticality: %s)", c)
}
