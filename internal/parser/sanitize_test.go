package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medibill/internal/domain"
)

func TestExtractJSONObject_PlainJSON(t *testing.T) {
	out, err := ExtractJSONObject(`{"pagewise_line_items":[]}`)
	require.NoError(t, err)
	assert.Equal(t, `{"pagewise_line_items":[]}`, out)
}

func TestExtractJSONObject_FencedBlock(t *testing.T) {
	raw := "Here is the data:\n```json\n{\"a\": 1}\n```\nLet me know if you need more."
	out, err := ExtractJSONObject(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestExtractJSONObject_UnclosedFence(t *testing.T) {
	out, err := ExtractJSONObject("```json\n{\"a\": 1}")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestExtractJSONObject_SurroundingProse(t *testing.T) {
	out, err := ExtractJSONObject(`The extraction result is {"a": {"b": 2}} as requested.`)
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 2}}`, out)
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	_, err := ExtractJSONObject("Sorry, I cannot process this.")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	_, err = ExtractJSONObject("")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcde...", Truncate("abcdefghij", 5))
}
