package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// reachGraph is a graph where task follows goal and goal's errordotIN is
// plugged to a constant velocity.
const reachGraph = "testdata/graphs/reach"

// executeCommand runs cmd with args and returns everything it printed.
func executeCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeGraph writes a single-file graph declaration and returns its directory.
func writeGraph(t *testing.T, cue string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "graph")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph.cue"), []byte(cue), 0o644))
	return dir
}
