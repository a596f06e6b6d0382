package cmd

import (
	"encoding/json"
	"testing"

	perrors "github.com/ignitionstack/polytree/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNode(t *testing.T) {
	node, err := parseNode("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), node)

	_, err = parseNode("forty-two")
	assert.True(t, perrors.Is(err, perrors.CodeInvalidArgument))
}

func TestParseCallArgs(t *testing.T) {
	assert.Equal(t, []any{int64(4), "x", "1.5"}, parseCallArgs([]string{"4", "x", "1.5"}))
	assert.Empty(t, parseCallArgs(nil))
}

func TestFormatResult(t *testing.T) {
	out, err := formatResult("Leaf(4) ")
	require.NoError(t, err)
	assert.Equal(t, "Leaf(4) ", out)

	out, err = formatResult([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", out)

	out, err = formatResult(map[string]any{"n": json.Number("4")})
	require.NoError(t, err)
	assert.Equal(t, `{"n":4}`, out)
}
