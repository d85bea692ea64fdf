package entity

import (
	"fmt"

	"github.com/roach88/sigflow/internal/ir"
)

// Command is a console-invocable operation exposed by an entity.
type Command struct {
	// Name is the command name, e.g. "setReference".
	Name string

	// Doc is the one-paragraph help text.
	Doc string

	// Arity is the exact number of arguments the command takes.
	Arity int

	// Run executes the command and returns its printable result.
	Run func(args []string) (string, error)
}

// Setter builds a one-argument command that stores its argument.
func Setter(name, doc string, set func(string) error) *Command {
	return &Command{
		Name:  name,
		Doc:   doc,
		Arity: 1,
		Run: func(args []string) (string, error) {
			return "", set(args[0])
		},
	}
}

// Getter builds a zero-argument command that returns a value.
func Getter(name, doc string, get func() string) *Command {
	return &Command{
		Name: name,
		Doc:  doc,
		Run: func([]string) (string, error) {
			return get(), nil
		},
	}
}

// AddCommand registers cmd. A duplicate name panics.
func (b *Base) AddCommand(cmd *Command) {
	if _, dup := b.cmdIndex[cmd.Name]; dup {
		panic(fmt.Sprintf("entity %s: command %q registered twice", b.name, cmd.Name))
	}
	b.commands = append(b.commands, cmd)
	b.cmdIndex[cmd.Name] = cmd
}

// Commands implements Entity.
func (b *Base) Commands() []*Command {
	out := make([]*Command, len(b.commands))
	copy(out, b.commands)
	return out
}

// Exec implements Entity.
func (b *Base) Exec(name string, args []string) (string, error) {
	cmd, ok := b.cmdIndex[name]
	if !ok {
		return "", &ir.GraphError{
			Code:    ir.ErrCodeUnknownCommand,
			Message: fmt.Sprintf("no command %q", name),
			Entity:  b.name,
			Time:    ir.NoTime,
		}
	}
	if len(args) != cmd.Arity {
		return "", fmt.Errorf("%s.%s: takes %d argument(s), got %d", b.name, name, cmd.Arity, len(args))
	}
	return cmd.Run(args)
}
