package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Output string
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <graph-dir>",
		Short: "Export a built graph as DOT",
		Long: `Build a graph and write it in Graphviz DOT form.

Each entity is a node; plugs are edges labelled with the input and output
signal names, and feature references are green edges from the
reference to the feature.

Example:
  sigflow graph ./graphs/reach | dot -Tsvg > reach.svg`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runGraph(opts *GraphOptions, graphDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	g, err := loadGraph(graphDir)
	if err != nil {
		return reportError(formatter, err)
	}

	var buf bytes.Buffer
	if err := g.Pool.WriteGraph(&buf, g.Spec.Name); err != nil {
		return reportError(formatter, WrapExitError(ExitFailure, "graph export failed", err))
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			if fmtErr := formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil); fmtErr != nil {
				return fmtErr
			}
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
		return nil
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]string{"graph": g.Spec.Name, "dot": buf.String()})
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
