package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
)

// DependencyNode is one equipment reached during traversal. Depth is signed
// (negative upstream, positive downstream); Distance is its absolute value.
type DependencyNode struct {
	AssetID      string `json:"asset_id"`
	Name         string `json:"name"`
	Alias        string `json:"alias,omitempty"`
	Direction    string `json:"direction"`
	Depth        int    `json:"depth"`
	Distance     int    `json:"distance"`
	Relationship string `json:"relationship"`
}

// TraversalResult is the merged view of both directions around a target,
// sorted closest first.
type TraversalResult struct {
	TargetID   string           `json:"target_id"`
	TargetName string           `json:"target_name"`
	Upstream   []DependencyNode `json:"upstream"`
	Downstream []DependencyNode `json:"downstream"`
	Merged     []DependencyNode `json:"merged"`
}

// Traverser walks the directed dependency graph around a piece of equipment.
type Traverser struct {
	db       core.DbClient
	maxDepth int
	log      *logger.Logger
}

func NewTraverser(db core.DbClient, maxDepth int, log *logger.Logger) *Traverser {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &Traverser{db: db, maxDepth: maxDepth, log: log}
}

// Traverse explores upstream and downstream separately. Each direction keeps
// its own visited set seeded with the target, so a machine that both feeds
// and consumes from the target appears once per direction. Cycles terminate
// because a node is never expanded twice within a direction.
func (t *Traverser) Traverse(ctx context.Context, orgID, targetID string) (*TraversalResult, error) {
	target, err := t.db.GetAssetByID(ctx, orgID, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &core.NotFoundError{Kind: "asset", ID: targetID}
	}

	res := &TraversalResult{TargetID: targetID, TargetName: target.Name}

	up := map[string]bool{targetID: true}
	res.Upstream = t.walk(ctx, orgID, targetID, models.DirectionUpstream, 1, up)

	down := map[string]bool{targetID: true}
	res.Downstream = t.walk(ctx, orgID, targetID, models.DirectionDownstream, 1, down)

	res.Merged = append(append([]DependencyNode{}, res.Upstream...), res.Downstream...)
	sort.SliceStable(res.Merged, func(i, j int) bool {
		return res.Merged[i].Distance < res.Merged[j].Distance
	})
	return res, nil
}

// walk expands one node's neighbors at the given distance and recurses. The
// visited set is shared down the whole direction, not copied per branch, so
// diamond-shaped graphs contribute each node once.
func (t *Traverser) walk(ctx context.Context, orgID, fromID, direction string, distance int, visited map[string]bool) []DependencyNode {
	if distance > t.maxDepth || ctx.Err() != nil {
		return nil
	}

	deps, err := t.db.ListDependencies(ctx, fromID, direction)
	if err != nil {
		t.log.Warn("dependency lookup failed mid-traversal", "asset", fromID, "error", err)
		return nil
	}

	var nodes []DependencyNode
	for _, dep := range deps {
		neighborID := dep.DependsOnID
		if visited[neighborID] {
			continue
		}
		visited[neighborID] = true

		neighbor, err := t.db.GetAssetByID(ctx, orgID, neighborID)
		if err != nil || neighbor == nil {
			continue
		}

		depth := distance
		if direction == models.DirectionUpstream {
			depth = -distance
		}
		nodes = append(nodes, DependencyNode{
			AssetID:      neighbor.ID,
			Name:         neighbor.Name,
			Direction:    direction,
			Depth:        depth,
			Distance:     distance,
			Relationship: relationship(dep, direction, neighbor.Name),
		})
		nodes = append(nodes, t.walk(ctx, orgID, neighborID, direction, distance+1, visited)...)
	}
	return nodes
}

func relationship(dep models.AssetDependency, direction, neighborName string) string {
	if dep.Description != "" {
		return dep.Description
	}
	if direction == models.DirectionUpstream {
		return fmt.Sprintf("%s feeds this equipment", neighborName)
	}
	return fmt.Sprintf("%s consumes from this equipment", neighborName)
}

// Render produces the chain text handed to the model: furthest upstream
// first, the target in the middle, furthest downstream last, plus a short
// diagnostic pointer at the closest node on each side.
func (r *TraversalResult) Render() string {
	if len(r.Upstream) == 0 && len(r.Downstream) == 0 {
		return fmt.Sprintf("%s has no recorded dependencies.", r.TargetName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dependency chain around %s:\n", r.TargetName)

	up := append([]DependencyNode{}, r.Upstream...)
	sort.SliceStable(up, func(i, j int) bool { return up[i].Distance > up[j].Distance })
	for _, n := range up {
		fmt.Fprintf(&b, "  [-%d] %s - %s\n", n.Distance, n.Name, n.Relationship)
	}
	fmt.Fprintf(&b, "  [ 0] %s (target)\n", r.TargetName)
	for _, n := range r.Downstream {
		fmt.Fprintf(&b, "  [+%d] %s - %s\n", n.Distance, n.Name, n.Relationship)
	}

	if hint := r.diagnosticHint(); hint != "" {
		b.WriteString(hint)
	}
	return b.String()
}

func (r *TraversalResult) diagnosticHint() string {
	var b strings.Builder
	if n := closest(r.Upstream); n != nil {
		fmt.Fprintf(&b, "If %s shows supply-side symptoms, check %s first.\n", r.TargetName, n.Name)
	}
	if n := closest(r.Downstream); n != nil {
		fmt.Fprintf(&b, "A fault in %s can surface downstream at %s.\n", r.TargetName, n.Name)
	}
	return b.String()
}

func closest(nodes []DependencyNode) *DependencyNode {
	var best *DependencyNode
	for i := range nodes {
		if best == nil || nodes[i].Distance < best.Distance {
			best = &nodes[i]
		}
	}
	return best
}
