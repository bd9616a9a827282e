// Command cliplay replays timed terminal scripts.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/cliplay/internal/command"
	"github.com/joeycumines/cliplay/internal/config"
)

var version = "0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	configPath, _ := config.GetConfigPath()
	cfg := config.NewConfig()
	if configPath != "" {
		loaded, err := config.LoadFromPath(configPath)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: ignoring configuration: %v\n", err)
		} else {
			cfg = loaded
		}
	}

	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewVersionCommand(version))
	registry.Register(command.NewConfigCommand(cfg, configPath))
	registry.Register(command.NewPlayCommand(cfg))
	registry.Register(command.NewCheckCommand())
	registry.Register(command.NewDumpCommand())
	registry.Register(command.NewExportCommand(cfg))

	if len(args) == 0 {
		return helpCmd.Execute(nil, stdout, stderr)
	}
	if args[0] == "-h" || args[0] == "--help" {
		return helpCmd.Execute(nil, stdout, stderr)
	}

	// Anything that is not a command name is a script to play, so the
	// shortest form is "cliplay demo.txt".
	name, cmdArgs := args[0], args[1:]
	if !registry.Has(name) {
		name, cmdArgs = "play", args
	}
	cmd, err := registry.Get(name)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: cliplay %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)

	positional, err := command.ParseArgs(fs, cmdArgs)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return cmd.Execute(positional, stdout, stderr)
}
