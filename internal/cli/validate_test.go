package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigflow/internal/compiler"
)

func TestValidate_Valid(t *testing.T) {
	out, err := executeCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), reachGraph)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Graph reach is valid")
}

func TestValidate_ValidJSON(t *testing.T) {
	out, err := executeCommand(t, NewValidateCommand(&RootOptions{Format: "json"}), reachGraph)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "reach", resp.Data.Graph)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	dir := writeGraph(t, `
entity: {
	a: {class: "Bogus"}
	b: {class: "FeatureGeneric", reference: "ghost"}
	c: {value: 1}
}
`)

	out, err := executeCommand(t, NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := make([]string, len(resp.Data.Errors))
	for i, e := range resp.Data.Errors {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{
		compiler.ErrCodeCompile,
		compiler.ErrUnknownReference,
		compiler.ErrUnknownClass,
	}, codes)
}

func TestValidate_EntityLoopIsWarning(t *testing.T) {
	dir := writeGraph(t, `
name: "loop"
entity: {
	a: {class: "FeatureGeneric"}
	b: {class: "FeatureGeneric"}
}
plug: [
	{from: "a.error", to: "b.errorIN"},
	{from: "b.error", to: "a.errorIN"},
]
`)

	out, err := executeCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: Entity loop detected: a → b → a")
	assert.Contains(t, out, "✓ Graph loop is valid")
}

func TestValidate_MissingDirectory(t *testing.T) {
	out, err := executeCommand(t, NewValidateCommand(&RootOptions{Format: "text"}), "testdata/graphs/missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
