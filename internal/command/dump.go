package command

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/joeycumines/cliplay/internal/script"
	"gopkg.in/yaml.v3"
)

// DumpCommand prints the parsed form of a script.
type DumpCommand struct {
	*BaseCommand
	format string
}

// NewDumpCommand returns the dump command.
func NewDumpCommand() *DumpCommand {
	return &DumpCommand{
		BaseCommand: NewBaseCommand(
			"dump",
			"Print the parsed actions of a script",
			"dump [options] <script-file>",
		),
		format: "yaml",
	}
}

func (c *DumpCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", "yaml", "Output format: yaml or json")
}

// dumpDocument is the serialized form of a script.Document.
type dumpDocument struct {
	Name     string       `yaml:"name" json:"name"`
	Duration string       `yaml:"duration" json:"duration"`
	Actions  []dumpAction `yaml:"actions" json:"actions"`
}

type dumpAction struct {
	Line  int    `yaml:"line" json:"line"`
	At    string `yaml:"at" json:"at"`
	Kind  string `yaml:"kind" json:"kind"`
	Text  string `yaml:"text,omitempty" json:"text,omitempty"`
	Row   int    `yaml:"row,omitempty" json:"row,omitempty"`
	Col   int    `yaml:"col,omitempty" json:"col,omitempty"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

func newDumpDocument(doc *script.Document) dumpDocument {
	out := dumpDocument{
		Name:     doc.DisplayName,
		Duration: script.FormatOffset(doc.Duration()),
		Actions:  make([]dumpAction, 0, len(doc.Actions)),
	}
	for _, a := range doc.Actions {
		da := dumpAction{
			Line: a.Line,
			At:   script.FormatOffset(a.Offset),
			Kind: a.Kind.String(),
		}
		switch a.Kind {
		case script.KindPrintText:
			da.Text = a.Text
		case script.KindMoveCursor:
			da.Row, da.Col = a.Row, a.Col
		case script.KindForeground:
			da.Color = fmt.Sprintf("%02x%02x%02x", a.Color.R, a.Color.G, a.Color.B)
		case script.KindBackground:
			da.Color = fmt.Sprintf("%02x%02x%02x%02x", a.Color.R, a.Color.G, a.Color.B, a.Color.A)
		}
		out.Actions = append(out.Actions, da)
	}
	return out
}

func (c *DumpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one script file, got %d arguments (usage: %s)", len(args), c.Usage())
	}
	if c.format != "yaml" && c.format != "json" {
		return fmt.Errorf("unknown format %q: expected yaml or json", c.format)
	}

	doc, err := loadScript(args[0], stderr, nil)
	if err != nil {
		return err
	}
	view := newDumpDocument(doc)

	if c.format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return err
	}
	return enc.Close()
}
