package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntentTroubleshooting(t *testing.T) {
	res := DetectIntent("The compressor is not working and keeps tripping the breaker")
	assert.Equal(t, IntentTroubleshooting, res.Intent)
	assert.Greater(t, res.Confidence, 0.5)
	assert.NotEmpty(t, res.Matched)
}

func TestDetectIntentParts(t *testing.T) {
	res := DetectIntent("I need the part number for a replacement filter cartridge")
	assert.Equal(t, IntentParts, res.Intent)
}

func TestDetectIntentProcedure(t *testing.T) {
	res := DetectIntent("How do I remove the belt guard for cleaning?")
	assert.Equal(t, IntentProcedure, res.Intent)
}

func TestDetectIntentSpecs(t *testing.T) {
	res := DetectIntent("What is the rated pressure and maximum capacity of the receiver?")
	assert.Equal(t, IntentSpecs, res.Intent)
}

func TestDetectIntentGeneralFallback(t *testing.T) {
	res := DetectIntent("tell me about this machine")
	assert.Equal(t, IntentGeneral, res.Intent)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestDetectIntentConfidenceCapped(t *testing.T) {
	res := DetectIntent("broken fault failure error alarm problem issue stopped leaking noise vibration")
	assert.Equal(t, IntentTroubleshooting, res.Intent)
	assert.LessOrEqual(t, res.Confidence, 0.95)
}
