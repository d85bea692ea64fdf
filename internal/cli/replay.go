package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sigflow/internal/engine"
	"github.com/roach88/sigflow/internal/ir"
)

// ErrCodeNondeterministic marks a replay whose samples differ from the record.
const ErrCodeNondeterministic = "E_DETERMINISM"

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Run      string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	Run           string            `json:"run"`
	Samples       int               `json:"samples"`
	Mismatches    []engine.Mismatch `json:"mismatches,omitempty"`
	Deterministic bool              `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Graph            string            `json:"graph"`
	Runs             []ReplayRunResult `json:"runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// WriteText renders the replay summary.
func (r *ReplayResult) WriteText(w io.Writer) error {
	if len(r.Runs) == 0 {
		_, err := fmt.Fprintf(w, "No runs of %s found in database.\n", r.Graph)
		return err
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s) of %s\n\n", len(r.Runs), r.Graph)
	for _, run := range r.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d sample(s), %d mismatch(es)\n", status, run.Run, run.Samples, len(run.Mismatches))
		for _, m := range run.Mismatches {
			fmt.Fprintf(w, "    t=%d %s: recorded %s, replayed %s\n",
				m.Recorded.Time, m.Recorded.Signal, sampleText(m.Recorded), sampleText(m.Replayed))
		}
	}
	return nil
}

func sampleText(s ir.Sample) string {
	if s.Failed() {
		return "error " + s.ErrorCode
	}
	return s.Value
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <graph-dir>",
		Short: "Re-evaluate recorded runs and verify determinism",
		Long: `Rebuild a graph and re-read every sample of its recorded runs.

Each run is replayed against a fresh build of the graph. A sample whose
value or error code differs from the record is a mismatch.

Exit codes:
  0 - All runs reproduce
  1 - Determinism verification failed (mismatches detected)
  2 - Command error (database not found, etc.)

Examples:
  sigflow replay --db ./trace.db ./graphs/reach
  sigflow replay --db ./trace.db --run 0190... ./graphs/reach`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, graphDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	// Load once to learn the graph name and fail early on a bad graph
	g, err := loadGraph(graphDir)
	if err != nil {
		return reportError(formatter, err)
	}

	var tokens []string
	if opts.Run != "" {
		run, err := st.ReadRun(ctx, opts.Run)
		if err != nil {
			return reportTraceError(formatter, err)
		}
		if run.Graph != g.Spec.Name {
			slog.Warn("replaying run against a different graph", "run", run.Token, "recorded", run.Graph, "graph", g.Spec.Name)
		}
		tokens = []string{opts.Run}
	} else {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		for _, r := range runs {
			if r.Graph == g.Spec.Name {
				tokens = append(tokens, r.Token)
			}
		}
	}

	result := &ReplayResult{Graph: g.Spec.Name, Runs: []ReplayRunResult{}, AllDeterministic: true}
	for i, token := range tokens {
		// Each run gets a fresh build; the first reuses the one loaded above
		if i > 0 {
			if g, err = loadGraph(graphDir); err != nil {
				return reportError(formatter, err)
			}
		}

		samples, err := st.ReadSamples(ctx, token, "")
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read samples of %s", token), err)
		}
		formatter.VerboseLog("Replaying %s: %d sample(s)", token, len(samples))

		mismatches, err := engine.Replay(g.Pool, samples)
		if err != nil {
			return reportError(formatter, WrapExitError(ExitFailure, fmt.Sprintf("failed to replay %s", token), err))
		}

		run := ReplayRunResult{
			Run:           token,
			Samples:       len(samples),
			Mismatches:    mismatches,
			Deterministic: len(mismatches) == 0,
		}
		result.Runs = append(result.Runs, run)
		if !run.Deterministic {
			result.AllDeterministic = false
		}
	}

	if !result.AllDeterministic {
		if fmtErr := formatter.Failure(ErrCodeNondeterministic, "determinism verification failed", result); fmtErr != nil {
			return fmtErr
		}
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return formatter.Success(result)
}
