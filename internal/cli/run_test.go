package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigflow/internal/engine"
	"github.com/roach88/sigflow/internal/store"
)

func newTestRunCommand(format string, tokens ...string) *RunOptions {
	if len(tokens) == 0 {
		tokens = []string{"run-1"}
	}
	return &RunOptions{
		RootOptions:  &RootOptions{Format: format},
		RunGenerator: engine.NewFixedGenerator(tokens...),
	}
}

func TestRun_ReadsWatchedSignals(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("text"))

	out, err := executeCommand(t, cmd, "--steps", "2", reachGraph)
	require.NoError(t, err)
	assert.Contains(t, out, "Run run-1: reach, 2 step(s)")
	assert.Contains(t, out, "t=1 task.errordot = [0.1,0.2,0.3,0.4]")
	assert.Contains(t, out, "t=1 task.error = [0.5,1.5,2.5,3.5]")
	assert.Contains(t, out, "t=2 task.error = [0.5,1.5,2.5,3.5]")
}

func TestRun_StartOffsetsClock(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("text"))

	out, err := executeCommand(t, cmd, "--start", "10", "--watch", "task.dim", reachGraph)
	require.NoError(t, err)
	assert.Contains(t, out, "t=11 task.dim = 4")
	assert.NotContains(t, out, "t=1 ")
}

func TestRun_JSON(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("json"))

	out, err := executeCommand(t, cmd, "-n", "2", reachGraph)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.Run)
	assert.Equal(t, 2, resp.Data.Steps)
	require.Len(t, resp.Data.Samples, 4)
	assert.Equal(t, "task.errordot", resp.Data.Samples[0].Signal)
	assert.Equal(t, "[0.1,0.2,0.3,0.4]", resp.Data.Samples[0].Value)
}

func TestRun_RecordsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	cmd := newRunCommand(newTestRunCommand("text"))

	_, err := executeCommand(t, cmd, "--db", dbPath, "--steps", "3", reachGraph)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "reach", run.Graph)
	assert.Equal(t, 3, run.Steps)
	assert.Equal(t, []string{"task.errordot", "task.error"}, run.Watch)

	samples, err := st.ReadSamples(context.Background(), "run-1", "task.error")
	require.NoError(t, err)
	assert.Len(t, samples, 3)
}

func TestRun_FailedReadStopsRun(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("text"))

	out, err := executeCommand(t, cmd, "--steps", "3", "--watch", "task.jacobian", reachGraph)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Run run-1: reach, 0 step(s)")
	assert.Contains(t, out, "t=1 task.jacobian: error UNSET_SIGNAL")
	assert.Contains(t, out, "Error [UNSET_SIGNAL]")
	assert.NotContains(t, out, "t=2")
}

func TestRun_ContinueOnError(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("json"))

	out, err := executeCommand(t, cmd, "--steps", "2", "--continue-on-error",
		"--watch", "task.jacobian,task.dim", reachGraph)
	require.NoError(t, err)

	var resp struct {
		Data RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Samples, 4)
	assert.True(t, resp.Data.Samples[0].Failed())
	assert.Equal(t, "UNSET_SIGNAL", resp.Data.Samples[0].ErrorCode)
	assert.Equal(t, "4", resp.Data.Samples[1].Value)
}

func TestRun_WritesMetrics(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")
	cmd := newRunCommand(newTestRunCommand("text"))

	_, err := executeCommand(t, cmd, "--steps", "2", "--metrics", metricsPath, reachGraph)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# TYPE sigflow_signal_computes_total counter")
	assert.Contains(t, string(data), `sigflow_signal_computes_total{signal="task.errordot"} 2`)
}

func TestRun_MaxSteps(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("text"))

	out, err := executeCommand(t, cmd, "--steps", "5", "--max-steps", "2", reachGraph)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Run run-1: reach, 2 step(s)")
}

func TestRun_NonExistentGraphDir(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("text"))

	_, err := executeCommand(t, cmd, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_NegativeSteps(t *testing.T) {
	cmd := newRunCommand(newTestRunCommand("text"))

	_, err := executeCommand(t, cmd, "--steps=-1", reachGraph)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_InvalidGraph(t *testing.T) {
	dir := writeGraph(t, `entity: { a: {class: "FeatureGeneric", reference: "ghost"} }`)
	cmd := newRunCommand(newTestRunCommand("text"))

	out, err := executeCommand(t, cmd, "--watch", "a.dim", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "invalid graph")
}
