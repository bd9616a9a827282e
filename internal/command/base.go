// Package command implements the cliplay subcommands.
package command

import (
	"flag"
	"io"
)

// Command is one subcommand.
type Command interface {
	// Name is the word used to invoke the command.
	Name() string

	// Description is a one-line summary for help output.
	Description() string

	// Usage is the synopsis shown by help.
	Usage() string

	// SetupFlags registers the command's flags on fs.
	SetupFlags(fs *flag.FlagSet)

	// Execute runs the command with the positional arguments left after
	// flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

// BaseCommand carries the descriptive parts of a Command. Commands embed it
// and override SetupFlags when they take flags.
type BaseCommand struct {
	name        string
	description string
	usage       string
}

// NewBaseCommand returns a BaseCommand.
func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{name: name, description: description, usage: usage}
}

func (c *BaseCommand) Name() string { return c.name }

func (c *BaseCommand) Description() string { return c.description }

func (c *BaseCommand) Usage() string { return c.usage }

// SetupFlags registers nothing.
func (c *BaseCommand) SetupFlags(*flag.FlagSet) {}
