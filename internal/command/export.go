package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/cliplay/internal/cast"
	"github.com/joeycumines/cliplay/internal/config"
	"github.com/joeycumines/cliplay/internal/player"
	"github.com/joeycumines/cliplay/internal/script"
	"github.com/joeycumines/cliplay/internal/sink"
	"github.com/joeycumines/cliplay/internal/storage"
	"golang.org/x/term"
)

// ExportCommand renders a script to an asciicast v2 recording without
// waiting in real time.
type ExportCommand struct {
	*BaseCommand
	config *config.Config

	output  string
	cols    int
	rows    int
	noClear bool
	profile string

	termSize func() (cols, rows int, err error)
	now      func() time.Time
}

// NewExportCommand returns the export command. cfg may be nil.
func NewExportCommand(cfg *config.Config) *ExportCommand {
	return &ExportCommand{
		BaseCommand: NewBaseCommand(
			"export",
			"Render a script to an asciicast v2 recording",
			"export [options] <script-file>",
		),
		config: cfg,
		termSize: terminalSize(os.Stdout),
		now:      time.Now,
	}
}

func (c *ExportCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.output, "o", "", "Output file (default: stdout)")
	fs.IntVar(&c.cols, "cols", 0, "Recording width (default: [export] cols, else terminal width)")
	fs.IntVar(&c.rows, "rows", 0, "Recording height (default: [export] rows, else terminal height)")
	fs.BoolVar(&c.noClear, "no-clear", false, "Omit the initial clear screen and prompt")
	fs.StringVar(&c.profile, "profile", "", "Color profile: truecolor, ansi256, ansi, ascii")
}

func (c *ExportCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one script file, got %d arguments (usage: %s)", len(args), c.Usage())
	}
	schema := config.DefaultSchema()

	cols, rows := c.size(schema)
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("invalid recording size %dx%d", cols, rows)
	}

	profileName := c.profile
	if profileName == "" {
		profileName = schema.Resolve(c.config, config.KeyPlayerColorProfile)
	}
	profile, err := sink.ParseProfile(profileName)
	if err != nil {
		return err
	}

	doc, err := loadScript(args[0], stderr, nil)
	if err != nil {
		return err
	}

	epoch := c.now()
	clock := player.NewVirtualClock(epoch)
	p := player.New(
		player.WithClock(clock),
		player.WithPromptSuffix(schema.Resolve(c.config, config.KeyPlayerPromptSuffix)),
		player.WithFraming(!c.noClear && schema.ResolveBool(c.config, "", config.KeyPlayerClear)),
	)
	header := cast.Header{
		Width:     cols,
		Height:    rows,
		Timestamp: epoch.Unix(),
		Title:     doc.DisplayName,
		Env:       map[string]string{"TERM": "xterm-256color"},
	}

	render := func(w io.Writer) error {
		enc, err := cast.NewEncoder(w, header, func() time.Duration { return clock.Now().Sub(epoch) })
		if err != nil {
			return err
		}
		if _, err := p.Play(context.Background(), doc, sink.NewTerminal(enc, sink.WithProfile(profile))); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return enc.Close()
	}

	if c.output == "" || c.output == "-" {
		return render(stdout)
	}
	if err := storage.AtomicWrite(c.output, 0o644, render); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Exported %s to %s (%dx%d, %s)\n",
		args[0], c.output, cols, rows, script.FormatOffset(doc.Duration()))
	return nil
}

// terminalSize reports the window size of f, failing when f is not a
// terminal.
func terminalSize(f *os.File) func() (cols, rows int, err error) {
	return func() (int, int, error) {
		return term.GetSize(int(f.Fd()))
	}
}

// size picks the recording size: flags, then an explicit [export] setting,
// then the current terminal, then the schema default.
func (c *ExportCommand) size(schema *config.ConfigSchema) (cols, rows int) {
	cols, rows = c.cols, c.rows
	var tcols, trows int
	if c.termSize != nil {
		if w, h, err := c.termSize(); err == nil {
			tcols, trows = w, h
		}
	}
	pick := func(flagValue int, key string, termValue int) int {
		if flagValue > 0 {
			return flagValue
		}
		if c.config != nil {
			if _, ok := c.config.GetSectionOption(config.SectionExport, key); ok {
				return schema.ResolveInt(c.config, config.SectionExport, key)
			}
		}
		if termValue > 0 {
			return termValue
		}
		return schema.ResolveInt(c.config, config.SectionExport, key)
	}
	return pick(cols, config.KeyExportCols, tcols), pick(rows, config.KeyExportRows, trows)
}
