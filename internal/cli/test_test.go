package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario reading task.error from the reach graph.
func writeScenario(t *testing.T, dir, name, expect string) {
	t.Helper()

	graph, err := filepath.Abs(reachGraph)
	require.NoError(t, err)

	yaml := fmt.Sprintf(`name: %s
description: "Task error against goal"
graph: %s
run_token: run-%s
steps:
  - read: task.error
    at: 1
    expect: %s
`, name, graph, name, expect)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(yaml), 0o644))
}

func TestTest_Pass(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "smoke", "[0.5, 1.5, 2.5, 3.5]")

	out, err := executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ smoke")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_Failure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "good", "[0.5, 1.5, 2.5, 3.5]")
	writeScenario(t, dir, "bad", "[0, 0, 0, 0]")

	out, err := executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bad")
	assert.Contains(t, out, "✓ good")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTest_Filter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "reach-one", "[0.5, 1.5, 2.5, 3.5]")
	writeScenario(t, dir, "other", "[0, 0, 0, 0]")

	out, err := executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), "--filter", "reach-*", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "other")
}

func TestTest_UpdateThenCompareGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "smoke", "[0.5, 1.5, 2.5, 3.5]")

	out, err := executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), "--update", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ smoke (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "smoke.golden"))
	require.NoError(t, err)
	assert.Equal(t,
		`{"run_token":"run-smoke","scenario_name":"smoke","trace":[{"path":"task.error","seq":1,"time":1,"type":"read","value":"[0.5,1.5,2.5,3.5]"}]}`,
		string(golden))

	_, err = executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	// A stale golden file fails the scenario
	stale := strings.Replace(string(golden), "0.5,1.5", "9,9", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "smoke.golden"), []byte(stale), 0o644))

	out, err = executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, err := executeCommand(t, NewTestCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
