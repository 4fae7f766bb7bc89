package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONNumbers(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"small": 42, "price": 2.75, "exp": 1e3, "edge": 9007199254740992,
		"big": 9007199254740993, "neg": -12345678901234567890, "nested": [{"id": 18446744073709551616}]}`))
	require.NoError(t, err)

	doc := v.(map[string]any)
	assert.Equal(t, 42.0, doc["small"])
	assert.Equal(t, 2.75, doc["price"])
	assert.Equal(t, 1000.0, doc["exp"])
	assert.Equal(t, 9007199254740992.0, doc["edge"])
	assert.Equal(t, json.Number("9007199254740993"), doc["big"])
	assert.Equal(t, json.Number("-12345678901234567890"), doc["neg"])
	nested := doc["nested"].([]any)[0].(map[string]any)
	assert.Equal(t, json.Number("18446744073709551616"), nested["id"])
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	_, err := DecodeJSON([]byte(`[1] [2]`))
	assert.Error(t, err)

	v, err := DecodeJSON([]byte("  null \n"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestScalarString(t *testing.T) {
	assert.Equal(t, "12345678901234567890", ScalarString(json.Number("12345678901234567890")))
	assert.Equal(t, "40", ScalarString(40.0))
	assert.Equal(t, "2.75", ScalarString(2.75))
	assert.Equal(t, "", ScalarString(nil))
	assert.Equal(t, "true", ScalarString(true))
}
