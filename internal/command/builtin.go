package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joeycumines/cliplay/internal/config"
)

// HelpCommand lists commands or describes one.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand returns the help command for registry.
func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "cliplay - replay timed terminal scripts")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage:")
		_, _ = fmt.Fprintln(stdout, "  cliplay <script-file> [--music <audio-file>]")
		_, _ = fmt.Fprintln(stdout, "  cliplay <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Commands:")

		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.ListBuiltin() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()

		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'cliplay help <command>' for the flags of a command.")
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		return err
	}

	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: cliplay %s\n", cmd.Usage())

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	var buf bytes.Buffer
	fs.SetOutput(&buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}
	return nil
}

// VersionCommand prints the version.
type VersionCommand struct {
	*BaseCommand
	version string
}

// NewVersionCommand returns the version command.
func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand("version", "Display version information", "version"),
		version:     version,
	}
}

func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	_, _ = fmt.Fprintf(stdout, "cliplay version %s\n", c.version)
	return nil
}

// ConfigCommand reads and writes configuration options.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	showAll    bool
}

// NewConfigCommand returns the config command. Values set through it are
// written to configPath; an empty configPath resolves GetConfigPath at
// write time.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Show or change configuration settings",
			"config [--all] [key [value]] | config validate | config schema",
		),
		config:     cfg,
		configPath: configPath,
	}
}

func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showAll, "all", false, "Show the effective value of every option")
}

func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	schema := config.DefaultSchema()

	if len(args) == 0 {
		if c.showAll {
			for _, opt := range schema.Options() {
				_, _ = fmt.Fprintf(stdout, "%s: %s\n", opt.QualifiedKey(), schema.ResolveSection(c.config, opt.Section, opt.Key))
			}
			return nil
		}
		_, _ = fmt.Fprintln(stdout, "Configuration management:")
		_, _ = fmt.Fprintln(stdout, "  config <key>          - Get the effective value")
		_, _ = fmt.Fprintln(stdout, "  config <key> <value>  - Set a value in the config file")
		_, _ = fmt.Fprintln(stdout, "  config --all          - Show every effective value")
		_, _ = fmt.Fprintln(stdout, "  config validate       - Validate the config file")
		_, _ = fmt.Fprintln(stdout, "  config schema         - Describe every option")
		return nil
	}

	switch args[0] {
	case "validate":
		if len(args) == 1 {
			return c.validate(stdout)
		}
	case "schema":
		if len(args) == 1 {
			_, _ = fmt.Fprint(stdout, schema.FormatHelp())
			return nil
		}
	}

	opt := schema.LookupQualified(args[0])
	if opt == nil {
		return fmt.Errorf("unknown configuration key %q (see 'cliplay config schema')", args[0])
	}

	switch len(args) {
	case 1:
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", opt.QualifiedKey(), schema.ResolveSection(c.config, opt.Section, opt.Key))
		return nil
	case 2:
		value := args[1]
		if err := config.ValidateValue(opt, value); err != nil {
			return fmt.Errorf("%s: %w", opt.QualifiedKey(), err)
		}
		path := c.configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
			path = p
		}
		if err := config.SetKeyInFile(path, opt.Section, opt.Key, value); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		if opt.Section == "" {
			c.config.SetGlobalOption(opt.Key, value)
		} else {
			c.config.SetSectionOption(opt.Section, opt.Key, value)
		}
		_, _ = fmt.Fprintf(stdout, "Set %s = %s in %s\n", opt.QualifiedKey(), value, path)
		if opt.EnvVar != "" {
			if _, ok := os.LookupEnv(opt.EnvVar); ok {
				_, _ = fmt.Fprintf(stderr, "Note: %s is set and overrides this value\n", opt.EnvVar)
			}
		}
		return nil
	default:
		return fmt.Errorf("too many arguments (usage: %s)", c.Usage())
	}
}

func (c *ConfigCommand) validate(stdout io.Writer) error {
	issues := config.ValidateConfig(c.config, config.DefaultSchema())
	if len(issues) == 0 {
		_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
		return nil
	}
	_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
	for _, issue := range issues {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
	}
	return fmt.Errorf("configuration has %d issue(s)", len(issues))
}
