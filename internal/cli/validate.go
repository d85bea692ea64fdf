package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/sigflow/internal/compiler"
	"github.com/roach88/sigflow/internal/factory"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Graph    string                     `json:"graph,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// WriteText renders the result for the text format.
func (r *ValidationResult) WriteText(w io.Writer) error {
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}
	if r.Valid {
		_, err := fmt.Fprintf(w, "✓ Graph %s is valid\n", r.Graph)
		return err
	}
	fmt.Fprintf(w, "Validation failed with %d error(s):\n", len(r.Errors))
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  [%s] %s: %s\n", e.Code, e.Field, e.Message)
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <graph-dir>",
		Short: "Validate a graph declaration without building it",
		Long: `Validate a CUE graph declaration.

Every entity and section is compiled so all errors are reported at once.
Wiring is checked against the declared entities and the known classes.
Loops between entities are reported as warnings: they only fail at
evaluation time if the signals along them depend on each other.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, graphDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	res, err := compiler.LoadGraph(graphDir, compiler.LoadModeCollectAll)

	// Directory and CUE build failures leave nothing to validate
	if res == nil || res.Spec == nil {
		if fmtErr := formatter.Error(errorCode(err, compiler.ErrCodeGeneric), err.Error(), nil); fmtErr != nil {
			return fmtErr
		}
		return WrapExitError(ExitCommandError, "failed to load graph", err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, graphDir)

	result := &ValidationResult{Graph: res.Spec.Name}
	result.Errors = append(result.Errors, loadErrors(err)...)
	result.Errors = append(result.Errors, compiler.Validate(res.Spec)...)
	result.Errors = append(result.Errors, compiler.ValidateClasses(res.Spec, factory.Default().Classes())...)
	result.Warnings = compiler.AnalyzeCycles(res.Spec)
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		msg := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))
		if fmtErr := formatter.Failure(result.Errors[0].Code, msg, result); fmtErr != nil {
			return fmtErr
		}
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result)
}

// loadErrors flattens collect-all compile errors into validation errors.
func loadErrors(err error) []compiler.ValidationError {
	if err == nil {
		return nil
	}

	var errs []error
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	} else {
		errs = []error{err}
	}

	out := make([]compiler.ValidationError, 0, len(errs))
	for _, e := range errs {
		ve := compiler.ValidationError{Field: "load", Message: e.Error(), Code: compiler.ErrCodeGeneric}
		var loadErr *compiler.LoadError
		if errors.As(e, &loadErr) {
			ve.Code = loadErr.Code
			ve.Message = loadErr.Message
			if loadErr.Pos.IsValid() {
				ve.Field = fmt.Sprintf("%s:%d", loadErr.Pos.Filename(), loadErr.Pos.Line())
			}
		}
		out = append(out, ve)
	}
	return out
}
