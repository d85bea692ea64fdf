package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Run      string
	Signal   string // optional - filter to one signal
	From     int64
	To       int64
	Failed   bool
}

// RunList is the output of trace without --run.
type RunList struct {
	Runs []ir.RunRecord `json:"runs"`
}

// WriteText renders one line per run.
func (l *RunList) WriteText(w io.Writer) error {
	if len(l.Runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded")
		return err
	}
	for _, r := range l.Runs {
		fmt.Fprintf(w, "%s  %s  start=%d steps=%d  watch=%s\n",
			r.Token, r.Graph, r.Start, r.Steps, strings.Join(r.Watch, ","))
	}
	return nil
}

// TraceResult holds one run and its samples.
type TraceResult struct {
	Run     ir.RunRecord `json:"run"`
	Samples []ir.Sample  `json:"samples"`
	Stats   TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Samples int `json:"samples"`
	Failed  int `json:"failed"`
}

// WriteText renders the run as a timeline.
func (r *TraceResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run: %s (%s)\n", r.Run.Token, r.Run.Graph)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	for _, s := range r.Samples {
		if s.Failed() {
			fmt.Fprintf(w, "t=%-6d %-30s ✗ %s\n", s.Time, s.Signal, s.ErrorCode)
			continue
		}
		fmt.Fprintf(w, "t=%-6d %-30s %s\n", s.Time, s.Signal, s.Value)
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	_, err := fmt.Fprintf(w, "Samples: %d, failed: %d\n", r.Stats.Samples, r.Stats.Failed)
	return err
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded runs and their samples",
		Long: `Show what a recorded run read.

Without --run, lists every recorded run in start order. With --run, shows
the run's samples in time order, optionally filtered by signal, time range
or failure.

Examples:
  sigflow trace --db ./trace.db
  sigflow trace --db ./trace.db --run 0190... --signal task.error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run token to show")
	cmd.Flags().StringVar(&opts.Signal, "signal", "", "filter to one signal path")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "only samples at or after this time")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "only samples at or before this time")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only failed reads")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Run == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return formatter.Success(&RunList{Runs: runs})
	}

	filter := store.SampleFilter{Run: opts.Run, Signal: opts.Signal, FailedOnly: opts.Failed}
	if cmd.Flags().Changed("from") {
		from := ir.Time(opts.From)
		filter.From = &from
	}
	if cmd.Flags().Changed("to") {
		to := ir.Time(opts.To)
		filter.To = &to
	}

	result, err := readTrace(ctx, st, filter)
	if err != nil {
		return reportTraceError(formatter, err)
	}
	return formatter.Success(result)
}

// reportTraceError reports a readTrace failure. Both unknown runs and
// storage failures are command errors.
func reportTraceError(f *OutputFormatter, err error) error {
	code := ErrCodeGraphError
	if errors.Is(err, store.ErrRunNotFound) {
		code = ErrCodeRunNotFound
	}
	if fmtErr := f.Error(code, err.Error(), nil); fmtErr != nil {
		return fmtErr
	}
	return WrapExitError(ExitCommandError, "failed to read trace", err)
}

func readTrace(ctx context.Context, st *store.Store, filter store.SampleFilter) (*TraceResult, error) {
	run, err := st.ReadRun(ctx, filter.Run)
	if err != nil {
		return nil, err
	}

	samples, err := st.QuerySamples(ctx, filter.Predicate())
	if err != nil {
		return nil, fmt.Errorf("read samples of %s: %w", filter.Run, err)
	}

	result := &TraceResult{Run: run, Samples: samples}
	result.Stats.Samples = len(samples)
	for _, s := range samples {
		if s.Failed() {
			result.Stats.Failed++
		}
	}
	return result, nil
}

// openExisting opens a trace database that must already exist; store.Open
// would silently create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
