package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sigflow/internal/engine"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/metrics"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Steps           int
	Start           int64
	Database        string
	MaxSteps        int
	Metrics         string
	Watch           []string
	ContinueOnError bool

	// RunGenerator allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunGenerator engine.RunTokenGenerator
}

// RunSummary is the output of the run command.
type RunSummary struct {
	Run     string      `json:"run"`
	Graph   string      `json:"graph"`
	Steps   int         `json:"steps"`
	Samples []ir.Sample `json:"samples"`
}

// WriteText renders one line per sample.
func (r *RunSummary) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run %s: %s, %d step(s)\n", r.Run, r.Graph, r.Steps)
	for _, s := range r.Samples {
		if s.Failed() {
			fmt.Fprintf(w, "  t=%d %s: error %s\n", s.Time, s.Signal, s.ErrorCode)
			continue
		}
		fmt.Fprintf(w, "  t=%d %s = %s\n", s.Time, s.Signal, s.Value)
	}
	return nil
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <graph-dir>",
		Short: "Step a graph through time and read the watched signals",
		Long: `Build a graph and step it through time.

At each step the clock advances by one and every watched signal is read.
With --db the run and its samples are recorded for trace and replay.

Example:
  sigflow run --steps 100 ./graphs/reach
  sigflow run --db ./trace.db --metrics - ./graphs/reach`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Steps, "steps", "n", 1, "number of steps to run")
	cmd.Flags().Int64Var(&opts.Start, "start", 0, "clock position before the first step")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database recording the run")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum steps per run")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", `write Prometheus metrics to this file ("-" for stderr)`)
	cmd.Flags().StringSliceVarP(&opts.Watch, "watch", "w", nil, "signals to watch (overrides the graph's watch list)")
	cmd.Flags().BoolVar(&opts.ContinueOnError, "continue-on-error", false, "record failed reads and keep stepping")

	return cmd
}

func runEngine(opts *RunOptions, graphDir string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions, cmd.ErrOrStderr())
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Steps < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--steps must be non-negative, got %d", opts.Steps))
	}

	var obs *metrics.Observer
	var poolOpts []pool.Option
	if opts.Metrics != "" {
		obs = metrics.New()
		poolOpts = append(poolOpts, pool.WithObserver(obs))
	}

	slog.Info("loading graph", "dir", graphDir)
	g, err := loadGraph(graphDir, poolOpts...)
	if err != nil {
		return reportError(formatter, err)
	}

	watch := g.Spec.Watch
	if len(opts.Watch) > 0 {
		watch = opts.Watch
	}
	if len(watch) == 0 {
		return NewExitError(ExitCommandError, "nothing to watch: declare watch in the graph or pass --watch")
	}

	runGen := opts.RunGenerator
	if runGen == nil {
		runGen = engine.UUIDv7Generator{}
	}
	engOpts := []engine.EngineOption{
		engine.WithClock(engine.NewClockAt(ir.Time(opts.Start))),
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithGraphName(g.Spec.Name),
	}
	if opts.ContinueOnError {
		engOpts = append(engOpts, engine.WithContinueOnError())
	}

	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		engOpts = append(engOpts, engine.WithRecorder(st))
	}

	eng := engine.New(g.Pool, watch, runGen, engOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer ossignal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping after current step", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	res, runErr := eng.Run(ctx, opts.Steps)

	if obs != nil {
		if err := writeMetrics(obs, opts.Metrics, cmd.ErrOrStderr()); err != nil {
			slog.Error("error writing metrics", "path", opts.Metrics, "error", err)
		}
	}

	if res == nil {
		return reportError(formatter, WrapExitError(ExitCommandError, "failed to start run", runErr))
	}

	summary := &RunSummary{Run: res.Token, Graph: g.Spec.Name, Steps: res.Steps, Samples: res.Samples}
	if summary.Samples == nil {
		summary.Samples = []ir.Sample{}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		code := errorCode(runErr, ErrCodeGraphError)
		if fmtErr := formatter.Failure(code, runErr.Error(), summary); fmtErr != nil {
			return fmtErr
		}
		return WrapExitError(ExitFailure, "run failed", runErr)
	}
	return formatter.Success(summary)
}

func writeMetrics(obs *metrics.Observer, path string, stderr io.Writer) error {
	if path == "-" {
		return obs.WriteText(stderr)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := obs.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// reportError prints err through the formatter and returns it as an
// ExitError, keeping its exit code when it already carries one.
func reportError(f *OutputFormatter, err error) error {
	if fmtErr := f.Error(errorCode(err, ErrCodeGraphError), err.Error(), nil); fmtErr != nil {
		return fmtErr
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return WrapExitError(ExitFailure, "command failed", err)
}
