package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPatternsKnownManufacturer(t *testing.T) {
	text := "FIAC air compressors\nModel: AB60-10\nOperating and maintenance manual for the compressor unit."

	res := ExtractPatterns(text)
	assert.Equal(t, "FIAC", res.Manufacturer)
	assert.Equal(t, "AB60-10", res.Model)
	assert.Equal(t, "compressor", res.EquipmentName)
	assert.Equal(t, "compressed air", res.Category)
	assert.GreaterOrEqual(t, res.Confidence, 0.7)
}

func TestExtractPatternsCompanySuffixNeedsContact(t *testing.T) {
	// A company suffix with no nearby contact markers is a supplier quoted
	// in passing, not the maker.
	without := ExtractPatterns("Supplied under license from Acme Machines S.p.A. for industrial use.")
	assert.Empty(t, without.Manufacturer)

	with := ExtractPatterns("Acme Machines S.p.A.\nVia Roma 15, Bologna\nTel: +39 051 000000")
	assert.Equal(t, "Acme Machines", with.Manufacturer)
}

func TestExtractPatternsReferenceFallback(t *testing.T) {
	res := ExtractPatterns("Keep this manual.\nRef: CX-4400-B\nGeneral pump documentation.")
	assert.Equal(t, "CX-4400-B", res.Model)
	assert.Equal(t, "pump", res.EquipmentName)
}

func TestExtractPatternsNothing(t *testing.T) {
	res := ExtractPatterns("completely unrelated prose with no identity signals at all")
	assert.Empty(t, res.Manufacturer)
	assert.Empty(t, res.Model)
	assert.Zero(t, res.Confidence)
}

func TestFromFilename(t *testing.T) {
	res := FromFilename("Compressor-FIAC.pdf")
	assert.Equal(t, "FIAC", res.Manufacturer)
	assert.Equal(t, "compressor", res.EquipmentName)
	assert.LessOrEqual(t, res.Confidence, 0.4, "filename guesses are capped")
}
