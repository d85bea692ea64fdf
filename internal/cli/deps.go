package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/roach88/sigflow/internal/signal"
)

// Signal modes as shown by deps.
const (
	modeUnset    = "unset"
	modeConstant = "constant"
	modeFunction = "function"
	modePlugged  = "plugged"
)

// DepNode is one signal in a dependency tree.
type DepNode struct {
	Path     string     `json:"path"`
	Type     string     `json:"type"`
	Mode     string     `json:"mode"`
	Cycle    bool       `json:"cycle,omitempty"`
	Children []*DepNode `json:"children,omitempty"`
}

// DepsResult holds one tree per requested signal.
type DepsResult struct {
	Roots []*DepNode `json:"roots"`
}

// WriteText renders each tree with treeprint.
func (r *DepsResult) WriteText(w io.Writer) error {
	for _, root := range r.Roots {
		tree := treeprint.NewWithRoot(root.label())
		addDepChildren(tree, root.Children)
		if _, err := io.WriteString(w, tree.String()); err != nil {
			return err
		}
	}
	return nil
}

func addDepChildren(tree treeprint.Tree, children []*DepNode) {
	for _, c := range children {
		if len(c.Children) == 0 {
			tree.AddNode(c.label())
			continue
		}
		addDepChildren(tree.AddBranch(c.label()), c.Children)
	}
}

func (n *DepNode) label() string {
	s := fmt.Sprintf("%s (%s, %s)", n.Path, n.Type, n.Mode)
	if n.Cycle {
		s += " [cycle]"
	}
	return s
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps <graph-dir> [signal...]",
		Short: "Show what a signal depends on",
		Long: `Build a graph and print the dependency tree of each signal.

A plugged signal's only child is its plug source; a computed signal lists
the signals its function reads. A signal already on the path from the root
is marked [cycle] and not expanded. Without signal arguments the graph's
watched signals are shown.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(rootOpts, args[0], args[1:], cmd)
		},
	}

	return cmd
}

func runDeps(opts *RootOptions, graphDir string, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	g, err := loadGraph(graphDir)
	if err != nil {
		return reportError(formatter, err)
	}

	if len(paths) == 0 {
		paths = g.Spec.Watch
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no signals given and the graph watches none")
	}

	result := &DepsResult{}
	for _, path := range paths {
		sig, err := g.Pool.Signal(path)
		if err != nil {
			return reportError(formatter, WrapExitError(ExitFailure, "unknown signal", err))
		}
		result.Roots = append(result.Roots, buildDepTree(sig, map[signal.Any]bool{}))
	}
	return formatter.Success(result)
}

// buildDepTree walks sig's dependencies depth first. onPath holds the
// signals between the root and sig.
func buildDepTree(sig signal.Any, onPath map[signal.Any]bool) *DepNode {
	node := &DepNode{Path: sig.Path(), Type: sig.TypeName(), Mode: signalMode(sig)}
	if onPath[sig] {
		node.Cycle = true
		return node
	}

	var children []signal.Any
	switch node.Mode {
	case modePlugged:
		children = []signal.Any{sig.Source()}
	case modeFunction:
		children = sig.Dependencies()
	}

	onPath[sig] = true
	for _, c := range children {
		node.Children = append(node.Children, buildDepTree(c, onPath))
	}
	delete(onPath, sig)
	return node
}

func signalMode(sig signal.Any) string {
	switch {
	case sig.Source() != nil:
		return modePlugged
	case sig.IsConstant():
		return modeConstant
	case sig.IsPlugged():
		return modeFunction
	default:
		return modeUnset
	}
}
