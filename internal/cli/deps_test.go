package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/signal"
)

func TestDeps_Tree(t *testing.T) {
	out, err := executeCommand(t, NewDepsCommand(&RootOptions{Format: "text"}), reachGraph, "task.errordot")
	require.NoError(t, err)

	assert.Contains(t, out, "task.errordot (Vector, function)")
	assert.Contains(t, out, "task.selec (Flags, constant)")
	assert.Contains(t, out, "task.errordotIN (Vector, unset)")
	assert.Contains(t, out, "task.dim (int, function)")
	assert.Contains(t, out, "task.errorIN (Vector, constant)")
}

func TestDeps_PluggedSignal(t *testing.T) {
	out, err := executeCommand(t, NewDepsCommand(&RootOptions{Format: "json"}), reachGraph, "goal.errordotIN")
	require.NoError(t, err)

	var resp struct {
		Data DepsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Roots, 1)

	root := resp.Data.Roots[0]
	assert.Equal(t, "goal.errordotIN", root.Path)
	assert.Equal(t, modePlugged, root.Mode)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "vel.sout", root.Children[0].Path)
	assert.Equal(t, modeConstant, root.Children[0].Mode)
}

func TestDeps_DefaultsToWatch(t *testing.T) {
	out, err := executeCommand(t, NewDepsCommand(&RootOptions{Format: "json"}), reachGraph)
	require.NoError(t, err)

	var resp struct {
		Data DepsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Roots, 2)
	assert.Equal(t, "task.errordot", resp.Data.Roots[0].Path)
	assert.Equal(t, "task.error", resp.Data.Roots[1].Path)
}

func TestDeps_UnknownSignal(t *testing.T) {
	_, err := executeCommand(t, NewDepsCommand(&RootOptions{Format: "text"}), reachGraph, "task.nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestBuildDepTree_MarksCycle(t *testing.T) {
	in := signal.NewInput[ir.Vector]("in")
	out := signal.NewSignal("out", func(buf ir.Vector, _ ir.Time) (ir.Vector, error) {
		return buf, nil
	}, in)
	in.Plug(out)

	tree := buildDepTree(in, map[signal.Any]bool{})
	assert.Equal(t, modePlugged, tree.Mode)
	require.Len(t, tree.Children, 1)

	outNode := tree.Children[0]
	assert.Equal(t, "out", outNode.Path)
	require.Len(t, outNode.Children, 1)
	assert.True(t, outNode.Children[0].Cycle)
	assert.Empty(t, outNode.Children[0].Children)

	res := &DepsResult{Roots: []*DepNode{tree}}
	var buf strings.Builder
	require.NoError(t, res.WriteText(&buf))
	assert.Contains(t, buf.String(), "in (Vector, plugged) [cycle]")
}
