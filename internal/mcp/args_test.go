package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgsOf(t *testing.T) {
	t.Parallel()

	args, err := argsOf(mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = argsOf(mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: "nope"}})
	assert.EqualError(t, err, "invalid arguments format")
}

func TestToolArgs_Str(t *testing.T) {
	t.Parallel()

	args := toolArgs{"name": "value", "empty": "", "number": 42.0}

	got, err := args.str("name", true)
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	_, err = args.str("missing", true)
	assert.EqualError(t, err, "missing parameter is required")

	got, err = args.str("missing", false)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = args.str("empty", true)
	assert.EqualError(t, err, "empty cannot be empty")

	_, err = args.str("number", false)
	assert.EqualError(t, err, "number must be a string")
}

func TestToolArgs_Boolean(t *testing.T) {
	t.Parallel()

	args := toolArgs{"on": true, "wrong": "true"}
	assert.True(t, args.boolean("on", false))
	assert.False(t, args.boolean("wrong", false))
	assert.True(t, args.boolean("missing", true))
}

func TestToolArgs_ClampedInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args toolArgs
		want int
	}{
		{"missing uses default", toolArgs{}, 4},
		{"in range", toolArgs{"n": 7.0}, 7},
		{"below min", toolArgs{"n": -3.0}, 1},
		{"above max", toolArgs{"n": 500.0}, 64},
		{"wrong type uses default", toolArgs{"n": "8"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.args.clampedInt("n", 4, 1, 64))
		})
	}
}

func TestToolArgs_Strings(t *testing.T) {
	t.Parallel()

	got, err := toolArgs{"p": []interface{}{"a.yaml", "b.yaml"}}.strings("p", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, got)

	got, err = toolArgs{"p": "one.yaml"}.strings("p", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.yaml"}, got)

	_, err = toolArgs{"p": []interface{}{"a.yaml", 3.0}}.strings("p", true)
	assert.EqualError(t, err, "p[1] must be a string")

	_, err = toolArgs{"p": []interface{}{}}.strings("p", true)
	assert.EqualError(t, err, "p cannot be empty")

	_, err = toolArgs{}.strings("p", true)
	assert.EqualError(t, err, "p parameter is required")

	got, err = toolArgs{}.strings("p", false)
	require.NoError(t, err)
	assert.Nil(t, got)
}
