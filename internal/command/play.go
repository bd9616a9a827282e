package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joeycumines/cliplay/internal/audio"
	"github.com/joeycumines/cliplay/internal/config"
	"github.com/joeycumines/cliplay/internal/player"
	"github.com/joeycumines/cliplay/internal/script"
	"github.com/joeycumines/cliplay/internal/sink"
)

// PlayCommand replays a script on stdout in real time.
type PlayCommand struct {
	*BaseCommand
	config *config.Config

	music   string
	noClear bool
	profile string
	logs    logFlags

	// ctxFactory and audioFactory are replaced in tests.
	ctxFactory   func() (context.Context, context.CancelFunc)
	audioFactory func(template string, logger *slog.Logger) (audio.Collaborator, error)
	clock        player.Clock
}

// NewPlayCommand returns the play command. cfg may be nil.
func NewPlayCommand(cfg *config.Config) *PlayCommand {
	return &PlayCommand{
		BaseCommand: NewBaseCommand(
			"play",
			"Replay a script on the terminal at its recorded timestamps",
			"play [options] <script-file>",
		),
		config: cfg,
		ctxFactory: func() (context.Context, context.CancelFunc) {
			return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		},
		audioFactory: func(template string, logger *slog.Logger) (audio.Collaborator, error) {
			return audio.NewExecPlayer(template, logger)
		},
	}
}

func (c *PlayCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.music, "music", "", "Audio file to play in the background")
	fs.BoolVar(&c.noClear, "no-clear", false, "Do not clear the screen or show the prompt before playback")
	fs.StringVar(&c.profile, "profile", "", "Color profile: truecolor, ansi256, ansi, ascii")
	c.logs.register(fs)
}

func (c *PlayCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one script file, got %d arguments (usage: %s)", len(args), c.Usage())
	}
	path := args[0]
	schema := config.DefaultSchema()

	lc, err := resolveLogConfig(c.logs, c.config)
	if err != nil {
		return err
	}
	logger, closer, err := lc.newLogger(stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	profileName := c.profile
	if profileName == "" {
		profileName = schema.Resolve(c.config, config.KeyPlayerColorProfile)
	}
	profile, err := sink.ParseProfile(profileName)
	if err != nil {
		return err
	}

	doc, err := loadScript(path, stderr, logger)
	if err != nil {
		return err
	}

	if c.music != "" {
		collab := c.startAudio(schema.Resolve(c.config, config.KeyAudioCommand), stderr, logger)
		defer collab.Close()
	}

	// A closed stdout must fail the write with EPIPE instead of killing the
	// process, so the error reaches the player and the audio is torn down.
	// Set after the audio starts, since ignored signals survive exec.
	signal.Ignore(syscall.SIGPIPE)
	defer signal.Reset(syscall.SIGPIPE)

	opts := []player.Option{
		player.WithLogger(logger),
		player.WithPromptSuffix(schema.Resolve(c.config, config.KeyPlayerPromptSuffix)),
		player.WithFraming(!c.noClear && schema.ResolveBool(c.config, "", config.KeyPlayerClear)),
	}
	if c.clock != nil {
		opts = append(opts, player.WithClock(c.clock))
	}

	ctx, cancel := c.ctxFactory()
	defer cancel()

	logger.Info("playback started",
		slog.String("file", path),
		slog.String("name", doc.DisplayName),
		slog.Int("actions", len(doc.Actions)),
		slog.Duration("duration", doc.Duration()),
	)
	stats, err := player.New(opts...).Play(ctx, doc, sink.NewTerminal(stdout, sink.WithProfile(profile)))
	attrs := []any{
		slog.Int("dispatched", stats.Actions),
		slog.Duration("elapsed", stats.Elapsed),
		slog.Duration("worst_cost", stats.WorstCost),
		slog.Int("worst_line", stats.WorstLine),
	}

	var overrun *player.OverrunError
	switch {
	case err == nil:
		logger.Info("playback finished", attrs...)
		return nil
	case errors.Is(err, context.Canceled):
		logger.Info("playback interrupted", attrs...)
		return nil
	case errors.As(err, &overrun):
		logger.Error("playback overran", append(attrs, slog.Any("error", err))...)
		return fmt.Errorf("%s: %w", path, err)
	case sink.IsBrokenPipe(err):
		logger.Error("output closed", append(attrs, slog.Any("error", err))...)
		return fmt.Errorf("%s: output closed: %w", path, err)
	default:
		logger.Error("playback failed", append(attrs, slog.Any("error", err))...)
		return fmt.Errorf("%s: %w", path, err)
	}
}

// startAudio launches the soundtrack. Failure is reported and playback
// continues without sound.
func (c *PlayCommand) startAudio(template string, stderr io.Writer, logger *slog.Logger) audio.Collaborator {
	collab, err := c.audioFactory(template, logger)
	if err == nil {
		err = collab.Start(c.music)
	}
	if err != nil {
		logger.Warn("audio unavailable", slog.String("file", c.music), slog.Any("error", err))
		_, _ = fmt.Fprintf(stderr, "Warning: audio disabled: %v\n", err)
		return audio.Nop{}
	}
	return collab
}

// loadScript opens and parses path, printing diagnostics to stderr.
func loadScript(path string, stderr io.Writer, logger *slog.Logger) (*script.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open script: %w", err)
	}
	defer f.Close()

	doc, diags, err := script.Parse(f)
	newDiagnosticPrinter(stderr, logger).printAll(path, diags, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
