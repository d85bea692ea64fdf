package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sigflow/internal/compiler"
	"github.com/roach88/sigflow/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult summarizes a compiled graph.
type CompilationResult struct {
	Graph    string `json:"graph"`
	Entities int    `json:"entities"`
	Plugs    int    `json:"plugs"`
	Sets     int    `json:"sets"`
	Watch    int    `json:"watch"`
	Output   string `json:"output,omitempty"`

	canonical []byte
}

// WriteText renders the result for the text format. Without an output file
// the canonical form itself is printed.
func (r *CompilationResult) WriteText(w io.Writer) error {
	if r.Output == "" {
		_, err := fmt.Fprintf(w, "%s\n", r.canonical)
		return err
	}
	_, err := fmt.Fprintf(w, "✓ Compiled %s: %d entities, %d plugs, %d sets, %d watched\n  Output: %s\n",
		r.Graph, r.Entities, r.Plugs, r.Sets, r.Watch, r.Output)
	return err
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <graph-dir>",
		Short: "Compile a CUE graph declaration to canonical JSON",
		Long: `Compile a CUE graph declaration to canonical JSON.

The output is byte-stable: object keys are sorted and numbers use their
shortest form, so compiled graphs can be diffed and hashed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, graphDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	res, err := compiler.LoadGraph(graphDir, compiler.LoadModeFailFast)
	if err != nil {
		if fmtErr := formatter.Error(errorCode(err, compiler.ErrCodeGeneric), err.Error(), nil); fmtErr != nil {
			return fmtErr
		}
		if res == nil {
			return WrapExitError(ExitCommandError, "failed to load graph", err)
		}
		return WrapExitError(ExitFailure, "compile failed", err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, graphDir)

	canonical, err := ir.MarshalCanonical(specToCanonical(res.Spec))
	if err != nil {
		return WrapExitError(ExitFailure, "canonical encoding failed", err)
	}

	result := &CompilationResult{
		Graph:     res.Spec.Name,
		Entities:  len(res.Spec.Entities),
		Plugs:     len(res.Spec.Plugs),
		Sets:      len(res.Spec.Sets),
		Watch:     len(res.Spec.Watch),
		Output:    opts.Output,
		canonical: canonical,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(canonical, '\n'), 0o644); err != nil {
			msg := fmt.Sprintf("writing output file: %v", err)
			if fmtErr := formatter.Error(ErrCodeWriteFailed, msg, nil); fmtErr != nil {
				return fmtErr
			}
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return formatter.Success(result)
}

// specToCanonical converts a compiled graph to the map form MarshalCanonical
// accepts. Empty optional fields are omitted.
func specToCanonical(spec *ir.GraphSpec) map[string]any {
	entities := make([]any, len(spec.Entities))
	for i, ent := range spec.Entities {
		m := map[string]any{
			"name":  ent.Name,
			"class": ent.Class,
		}
		if ent.Reference != "" {
			m["reference"] = ent.Reference
		}
		if len(ent.Params) > 0 {
			m["params"] = ent.Params
		}
		entities[i] = m
	}

	out := map[string]any{
		"name":     spec.Name,
		"entities": entities,
	}

	if len(spec.Plugs) > 0 {
		plugs := make([]any, len(spec.Plugs))
		for i, p := range spec.Plugs {
			plugs[i] = map[string]any{"from": p.From, "to": p.To}
		}
		out["plugs"] = plugs
	}
	if len(spec.Sets) > 0 {
		sets := make([]any, len(spec.Sets))
		for i, s := range spec.Sets {
			sets[i] = map[string]any{"path": s.Path, "value": s.Value}
		}
		out["sets"] = sets
	}
	if len(spec.Watch) > 0 {
		out["watch"] = spec.Watch
	}
	return out
}
