package metadata

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalvageJSONPlain(t *testing.T) {
	out, err := SalvageJSON(`{"manufacturer": "FIAC"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"manufacturer": "FIAC"}`, out)
}

func TestSalvageJSONFenced(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"model\": \"AB60\"}\n```\nLet me know if you need more."
	out, err := SalvageJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model": "AB60"}`, out)
}

func TestSalvageJSONSurroundingProse(t *testing.T) {
	out, err := SalvageJSON(`Sure! The identity is {"manufacturer": "Kaeser", "nested": {"a": 1}} as requested.`)
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "Kaeser", v["manufacturer"])
}

func TestSalvageJSONBracesInsideStrings(t *testing.T) {
	out, err := SalvageJSON(`{"note": "contains } and { inside", "x": 1}`)
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, float64(1), v["x"])
}

func TestSalvageJSONFailures(t *testing.T) {
	_, err := SalvageJSON("no object here at all")
	assert.Error(t, err)

	_, err = SalvageJSON(`{"unterminated": true`)
	assert.Error(t, err)
}
