package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColor_JSON(t *testing.T) {
	data, err := json.Marshal([]Color{ColorNone, ColorRed, ColorBlue})
	require.NoError(t, err)
	assert.JSONEq(t, `[null, "red", "blue"]`, string(data))

	var colors []Color
	require.NoError(t, json.Unmarshal([]byte(`[null, "red", "blue", ""]`), &colors))
	assert.Equal(t, []Color{ColorNone, ColorRed, ColorBlue, ColorNone}, colors)

	var color Color
	require.Error(t, json.Unmarshal([]byte(`"green"`), &color))
}

func TestColor_Opponent(t *testing.T) {
	assert.Equal(t, ColorBlue, ColorRed.Opponent())
	assert.Equal(t, ColorRed, ColorBlue.Opponent())
	assert.Equal(t, ColorNone, ColorNone.Opponent())
}
