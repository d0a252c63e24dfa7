package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/models"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func TestQuickAnalyzeTroubleshooting(t *testing.T) {
	a := QuickAnalyze("The pump motor is leaking and showing error E-404")

	assert.Equal(t, IntentTroubleshooting, a.Intent)
	assert.Equal(t, UrgencyNormal, a.Urgency)
	assert.Equal(t, AnalysisQuick, a.Method)
	assert.ElementsMatch(t, []string{"motor", "pump"}, a.Components)
	assert.Equal(t, []string{"E-404"}, a.ErrorCodes)
	assert.True(t, a.SearchSchematics)
	assert.True(t, a.SearchDependencies)
	assert.True(t, a.SafetyWarnings)
	assert.Equal(t, "steps", a.ResponseFormat)
}

func TestQuickAnalyzeEmergencyUrgency(t *testing.T) {
	a := QuickAnalyze("There is smoke coming from the panel")
	assert.Equal(t, UrgencyEmergency, a.Urgency)
}

func TestQuickAnalyzeHighUrgency(t *testing.T) {
	a := QuickAnalyze("The line is down, need the service interval quickly")
	assert.Equal(t, UrgencyEmergency, a.Urgency) // "line down" variants are emergencies
}

func TestQuickAnalyzeErrorCodes(t *testing.T) {
	a := QuickAnalyze("showing fault code F-22 and then E404 on the display")
	assert.Contains(t, a.ErrorCodes, "F-22")
	assert.Contains(t, a.ErrorCodes, "E404")
}

func TestQuickAnalyzePartsFormat(t *testing.T) {
	a := QuickAnalyze("I need the part number for the replacement filter")
	assert.Equal(t, IntentParts, a.Intent)
	assert.Equal(t, "table", a.ResponseFormat)
	assert.True(t, a.IncludePartsList)
}

func TestAnalyzeShortBenignQuerySkipsModel(t *testing.T) {
	llm := &testutil.FakeLLM{Response: `{"intent":"specs"}`}
	an := NewAnalyzer(llm, 100, logger.NewNop())

	got := an.Analyze(context.Background(), "grease schedule?", nil)

	assert.Equal(t, 0, llm.Calls())
	assert.Equal(t, AnalysisQuick, got.Method)
}

func TestAnalyzeLongQueryTriggersModelByLength(t *testing.T) {
	llm := &testutil.FakeLLM{Err: errors.New("model offline")}
	an := NewAnalyzer(llm, 100, logger.NewNop())

	msg := "Please describe the recommended lubrication schedule for the main conveyor gearbox, including the grease type and the interval in hours"
	got := an.Analyze(context.Background(), msg, nil)

	assert.Equal(t, 1, llm.Calls())
	// Model failed, so the quick tier is what comes back.
	assert.Equal(t, AnalysisQuick, got.Method)
	assert.Equal(t, IntentMaintenance, got.Intent)
}

func TestAnalyzeShortTroubleshootingQueryTriggersModelByIntent(t *testing.T) {
	llm := &testutil.FakeLLM{Err: errors.New("model offline")}
	an := NewAnalyzer(llm, 100, logger.NewNop())

	an.Analyze(context.Background(), "pump is leaking", nil)

	assert.Equal(t, 1, llm.Calls())
}

func TestAnalyzeMergesModelOutput(t *testing.T) {
	llm := &testutil.FakeLLM{Response: `{
		"intent":"troubleshooting","urgency":"high","scope":"component",
		"components":["contactor"],"error_codes":["E-77"],
		"search_schematics":false,"search_dependencies":false,
		"response_format":"steps","safety_warnings":false,"include_parts_list":true}`}
	an := NewAnalyzer(llm, 100, logger.NewNop())

	got := an.Analyze(context.Background(), "compressor won't start", nil)

	assert.Equal(t, AnalysisFull, got.Method)
	assert.Equal(t, IntentTroubleshooting, got.Intent)
	assert.Equal(t, 0.9, got.IntentConfidence)
	assert.Equal(t, UrgencyHigh, got.Urgency)
	assert.Equal(t, "component", got.Scope)
	assert.Equal(t, []string{"contactor"}, got.Components)
	assert.Equal(t, []string{"E-77"}, got.ErrorCodes)
	// The model cannot turn off flags the quick tier already raised.
	assert.True(t, got.SearchSchematics)
	assert.True(t, got.SearchDependencies)
	assert.True(t, got.SafetyWarnings)
	assert.True(t, got.IncludePartsList)
}

func TestAnalyzeGarbageModelOutputFallsBack(t *testing.T) {
	llm := &testutil.FakeLLM{Response: "I cannot help with that."}
	an := NewAnalyzer(llm, 100, logger.NewNop())

	got := an.Analyze(context.Background(), "compressor won't start", nil)

	assert.Equal(t, 1, llm.Calls())
	assert.Equal(t, AnalysisQuick, got.Method)
	assert.Equal(t, IntentTroubleshooting, got.Intent)
}

func TestAnalyzeAssetContextInPrompt(t *testing.T) {
	var seenUser string
	llm := &testutil.FakeLLM{GenerateFn: func(_ context.Context, _, user string) (string, error) {
		seenUser = user
		return `{"intent":"troubleshooting"}`, nil
	}}
	an := NewAnalyzer(llm, 100, logger.NewNop())

	asset := &AssetContext{
		Name: "Compressor 2", Level: "equipment", Category: "compressor",
		Children: []string{"Motor", "Receiver"}, Aliases: []string{"the big FIAC"},
	}
	an.Analyze(context.Background(), "compressor won't start", asset)

	assert.Contains(t, seenUser, "Compressor 2")
	assert.Contains(t, seenUser, "Motor, Receiver")
	assert.Contains(t, seenUser, "the big FIAC")
	assert.Contains(t, seenUser, "compressor won't start")
}

func TestBuildAssetContext(t *testing.T) {
	db := &testutil.FakeDB{
		GetAssetByIDFn: func(_ context.Context, _, id string) (*models.Asset, error) {
			if id != "cmp" {
				return nil, nil
			}
			return &models.Asset{ID: "cmp", Name: "Air Compressor", Level: "equipment", Category: "compressor"}, nil
		},
		ListChildAssetsFn: func(_ context.Context, _, parentID string) ([]models.Asset, error) {
			return []models.Asset{{ID: "mot", Name: "Drive Motor"}}, nil
		},
		ListAliasesByAssetFn: func(_ context.Context, assetID string) ([]models.AssetAlias, error) {
			return []models.AssetAlias{{AssetID: assetID, Alias: "the big komp"}}, nil
		},
	}

	ac, err := BuildAssetContext(context.Background(), db, "org-1", "cmp")

	require.NoError(t, err)
	require.NotNil(t, ac)
	assert.Equal(t, "Air Compressor", ac.Name)
	assert.Equal(t, "equipment", ac.Level)
	assert.Equal(t, []string{"Drive Motor"}, ac.Children)
	assert.Equal(t, []string{"the big komp"}, ac.Aliases)
}

func TestBuildAssetContextUnknownAsset(t *testing.T) {
	ac, err := BuildAssetContext(context.Background(), &testutil.FakeDB{}, "org-1", "ghost")

	require.NoError(t, err)
	assert.Nil(t, ac)
}
