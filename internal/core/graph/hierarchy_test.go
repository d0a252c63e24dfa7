package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/core"
	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func hierarchyFixture() *testutil.FakeDB {
	plantID := "plant"
	lineID := "line"
	assets := map[string]*models.Asset{
		"plant": {ID: "plant", Name: "Milan Plant", Level: "site", Path: "plant"},
		"line":  {ID: "line", Name: "Packing Line 1", Level: "line", ParentID: &plantID, Path: "plant/line"},
		"cmp":   {ID: "cmp", Name: "Compressor", Level: "equipment", ParentID: &lineID, Path: "plant/line/cmp"},
		"flr":   {ID: "flr", Name: "Filler", Level: "equipment", ParentID: &lineID, Path: "plant/line/flr"},
		"mot":   {ID: "mot", Name: "Drive Motor", Level: "component", ParentID: strPtr("cmp"), Path: "plant/line/cmp/mot"},
		"gen":   {ID: "gen", Name: "Generator", Criticality: models.CriticalityCritical},
	}
	children := map[string][]models.Asset{
		"line": {*assets["cmp"], *assets["flr"]},
		"cmp":  {*assets["mot"]},
	}
	deps := map[string][]models.AssetDependency{
		"cmp/upstream": {{EquipmentID: "cmp", DependsOnID: "gen", Direction: models.DirectionUpstream}},
	}
	return &testutil.FakeDB{
		GetAssetByIDFn: func(_ context.Context, _, id string) (*models.Asset, error) {
			return assets[id], nil
		},
		ListChildAssetsFn: func(_ context.Context, _, parentID string) ([]models.Asset, error) {
			return children[parentID], nil
		},
		ListDependenciesFn: func(_ context.Context, equipmentID, direction string) ([]models.AssetDependency, error) {
			return deps[equipmentID+"/"+direction], nil
		},
	}
}

func strPtr(s string) *string { return &s }

func TestHierarchyResolve(t *testing.T) {
	h := NewHierarchyResolver(hierarchyFixture(), logger.NewNop())

	hc, err := h.Resolve(context.Background(), "org-1", "cmp")

	require.NoError(t, err)
	require.Len(t, hc.Path, 2)
	assert.Equal(t, "Milan Plant", hc.Path[0].Name)
	assert.Equal(t, "Packing Line 1", hc.Path[1].Name)

	require.Len(t, hc.Siblings, 1)
	assert.Equal(t, "Filler", hc.Siblings[0].Name)

	require.Len(t, hc.Children, 1)
	assert.Equal(t, "Drive Motor", hc.Children[0].Name)

	require.Len(t, hc.Upstream, 1)
	assert.Equal(t, "Generator", hc.Upstream[0].Name)
	assert.Equal(t, models.CriticalityCritical, hc.Upstream[0].Criticality)
	assert.Empty(t, hc.Downstream)
}

func TestHierarchyResolveTopLevel(t *testing.T) {
	h := NewHierarchyResolver(hierarchyFixture(), logger.NewNop())

	hc, err := h.Resolve(context.Background(), "org-1", "plant")

	require.NoError(t, err)
	assert.Empty(t, hc.Path)
	assert.Empty(t, hc.Siblings)
}

func TestHierarchyResolveUnknownAsset(t *testing.T) {
	h := NewHierarchyResolver(hierarchyFixture(), logger.NewNop())

	_, err := h.Resolve(context.Background(), "org-1", "ghost")

	var nf *core.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestHierarchyResolveBrokenPathDegrades(t *testing.T) {
	db := hierarchyFixture()
	inner := db.GetAssetByIDFn
	db.GetAssetByIDFn = func(ctx context.Context, orgID, id string) (*models.Asset, error) {
		if id == "plant" {
			return nil, nil
		}
		return inner(ctx, orgID, id)
	}
	h := NewHierarchyResolver(db, logger.NewNop())

	hc, err := h.Resolve(context.Background(), "org-1", "cmp")

	require.NoError(t, err)
	require.Len(t, hc.Path, 1)
	assert.Equal(t, "Packing Line 1", hc.Path[0].Name)
}

func TestHierarchyRender(t *testing.T) {
	h := NewHierarchyResolver(hierarchyFixture(), logger.NewNop())
	hc, err := h.Resolve(context.Background(), "org-1", "cmp")
	require.NoError(t, err)

	out := hc.Render()

	assert.Contains(t, out, "Location: Milan Plant > Packing Line 1 > Compressor")
	assert.Contains(t, out, "Sub-components: Drive Motor")
	assert.Contains(t, out, "Adjacent equipment: Filler")
	assert.Contains(t, out, "Fed by: Generator (criticality: critical)")
	assert.Contains(t, out, "Note: Generator is a critical upstream dependency")
}

func TestHierarchyRenderTopLevel(t *testing.T) {
	hc := &HierarchyContext{Asset: &models.Asset{Name: "Milan Plant"}}
	assert.Contains(t, hc.Render(), "Location: Milan Plant (top level)")
}
