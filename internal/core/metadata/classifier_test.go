package metadata

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maintexa-ai/maintexa/internal/logger"
	"github.com/maintexa-ai/maintexa/internal/testutil"
)

func TestClassifyByKeywordsStrongSignal(t *testing.T) {
	text := strings.Repeat("Preventive maintenance schedule. Service interval: 500 hours. Lubrication points. ", 3)

	res := ClassifyByKeywords(text)
	require.Contains(t, res.Types, TypeMaintenance)
	assert.GreaterOrEqual(t, res.Confidence, 0.7)
	assert.Equal(t, MethodPattern, res.Method)
}

func TestClassifyByKeywordsDefaultsToManual(t *testing.T) {
	res := ClassifyByKeywords("generic prose with no recognizable vocabulary")
	assert.Equal(t, []string{TypeManual}, res.Types)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestClassifyByKeywordsMultiLabel(t *testing.T) {
	text := "Wiring diagram, terminal block layout, schematic legend. Spare parts list with part number index and exploded view."

	res := ClassifyByKeywords(text)
	assert.Contains(t, res.Types, TypeSchematic)
	assert.Contains(t, res.Types, TypePartsList)
}

func TestClassifyConsultsModelOnWeakEvidence(t *testing.T) {
	llm := &testutil.FakeLLM{Response: `{"types": ["installation"], "confidence": 0.8}`}
	c := NewClassifier(llm, logger.NewNop())

	res := c.Classify(context.Background(), "generic prose with no recognizable vocabulary")
	assert.Equal(t, 1, llm.Calls())
	assert.Contains(t, res.Types, TypeInstallation)
}

func TestClassifySkipsModelOnStrongEvidence(t *testing.T) {
	llm := &testutil.FakeLLM{Err: errors.New("must not be called")}
	c := NewClassifier(llm, logger.NewNop())
	text := strings.Repeat("Preventive maintenance schedule. Service interval. Lubrication. Inspection. ", 3)

	res := c.Classify(context.Background(), text)
	assert.Zero(t, llm.Calls())
	assert.Contains(t, res.Types, TypeMaintenance)
}

func TestClassifyModelFailureKeepsKeywordResult(t *testing.T) {
	llm := &testutil.FakeLLM{Err: errors.New("model offline")}
	c := NewClassifier(llm, logger.NewNop())

	res := c.Classify(context.Background(), "generic prose with no recognizable vocabulary")
	assert.Equal(t, []string{TypeManual}, res.Types)
}
