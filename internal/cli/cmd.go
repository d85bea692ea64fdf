package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sigflow/internal/ir"
)

// CommandInfo describes one entity command.
type CommandInfo struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`
	Doc   string `json:"doc"`
}

// CommandList is the output of cmd without a command name.
type CommandList struct {
	Entity   string        `json:"entity"`
	Class    string        `json:"class"`
	Commands []CommandInfo `json:"commands"`
}

// WriteText renders the command help.
func (l *CommandList) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "%s (%s)\n", l.Entity, l.Class)
	for _, c := range l.Commands {
		fmt.Fprintf(w, "  %-20s %d arg(s)  %s\n", c.Name, c.Arity, c.Doc)
	}
	return nil
}

// CommandOutput is the output of an executed command.
type CommandOutput struct {
	Entity  string   `json:"entity"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Output  string   `json:"output"`
}

// WriteText prints the command's output alone.
func (o *CommandOutput) WriteText(w io.Writer) error {
	if o.Output == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, o.Output)
	return err
}

// NewCmdCommand creates the cmd command.
func NewCmdCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cmd <graph-dir> <entity>[.<command>] [args...]",
		Short: "Run an entity's console command",
		Long: `Build a graph and run a console command on one of its entities.

Given only an entity name, lists the entity's commands.

Example:
  sigflow cmd ./graphs/reach task
  sigflow cmd ./graphs/reach task.getReference
  sigflow cmd ./graphs/reach task.setReference goal`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCmd(rootOpts, args[0], args[1], args[2:], cmd)
		},
	}

	return cmd
}

func runCmd(opts *RootOptions, graphDir, target string, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	g, err := loadGraph(graphDir)
	if err != nil {
		return reportError(formatter, err)
	}

	// A bare entity name lists its commands
	if e, err := g.Pool.Lookup(target); err == nil {
		if len(args) > 0 {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: arguments given without a command", target))
		}
		list := &CommandList{Entity: e.Name(), Class: e.ClassName(), Commands: []CommandInfo{}}
		for _, c := range e.Commands() {
			list.Commands = append(list.Commands, CommandInfo{Name: c.Name, Arity: c.Arity, Doc: c.Doc})
		}
		return formatter.Success(list)
	}

	entName, cmdName, err := ir.SignalPath(target)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitCommandError, "invalid command", err))
	}
	e, err := g.Pool.Lookup(entName)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitFailure, "unknown entity", err))
	}

	out, err := e.Exec(cmdName, args)
	if err != nil {
		return reportError(formatter, WrapExitError(ExitFailure, "command failed", err))
	}
	return formatter.Success(&CommandOutput{Entity: e.Name(), Command: cmdName, Args: args, Output: out})
}
