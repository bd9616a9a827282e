// Package player executes a parsed script against a sink in real time.
//
// Each action is dispatched at start+offset, where start is captured once
// before the first action. Deadlines are absolute, so time spent waking up or
// dispatching does not accumulate across actions. After every dispatch the
// player measures how long the sink took; if that exceeds the gap before the
// next action, playback stops with an *OverrunError.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joeycumines/cliplay/internal/script"
	"github.com/joeycumines/cliplay/internal/sink"
)

// DefaultPromptSuffix follows the display name wherever a prompt is shown.
const DefaultPromptSuffix = "> "

// Player dispatches script actions to a sink on schedule.
type Player struct {
	clock        Clock
	logger       *slog.Logger
	promptSuffix string
	framing      bool
}

// Option configures a Player.
type Option func(*Player)

// WithClock replaces the SystemClock.
func WithClock(c Clock) Option {
	return func(p *Player) { p.clock = c }
}

// WithLogger sets the logger used for per-action debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.logger = l }
}

// WithPromptSuffix changes the text printed after the display name.
func WithPromptSuffix(s string) Option {
	return func(p *Player) { p.promptSuffix = s }
}

// WithFraming enables the untimed opening (clear screen, reset style, show
// the prompt) and the closing style reset.
func WithFraming(enabled bool) Option {
	return func(p *Player) { p.framing = enabled }
}

// New returns a Player using the system clock.
func New(opts ...Option) *Player {
	p := &Player{
		clock:        SystemClock{},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		promptSuffix: DefaultPromptSuffix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats summarises a playback run.
type Stats struct {
	// Actions is the number of actions dispatched.
	Actions int
	// Elapsed is the time from the first deadline to the end of the last
	// dispatch.
	Elapsed time.Duration
	// WorstCost is the longest single dispatch, at WorstLine.
	WorstCost time.Duration
	WorstLine int
}

// Play runs doc against s and returns when the last action has been
// dispatched, an action overruns its budget, the sink fails or ctx is done.
// Output already written is never rolled back.
func (p *Player) Play(ctx context.Context, doc *script.Document, s sink.Sink) (Stats, error) {
	var stats Stats
	if doc == nil {
		return stats, fmt.Errorf("player: nil document")
	}
	prompt := doc.DisplayName + p.promptSuffix

	if p.framing {
		if err := p.open(s, prompt); err != nil {
			return stats, err
		}
	}

	err := p.run(ctx, doc, s, prompt, &stats)

	if p.framing && !isSinkError(err) {
		if rerr := s.ResetStyle(); rerr != nil && err == nil {
			err = fmt.Errorf("player: resetting style: %w", rerr)
		}
	}
	return stats, err
}

func (p *Player) run(ctx context.Context, doc *script.Document, s sink.Sink, prompt string, stats *Stats) error {
	actions := doc.Actions
	start := p.clock.Now()

	for i := range actions {
		cur := &actions[i]
		if err := p.clock.SleepUntil(ctx, start.Add(cur.Offset)); err != nil {
			return fmt.Errorf("player: stopped before line %d: %w", cur.Line, err)
		}

		before := p.clock.Now()
		if err := dispatch(s, cur, prompt); err != nil {
			return &SinkError{Line: cur.Line, Kind: cur.Kind, Err: err}
		}
		after := p.clock.Now()
		cost := after.Sub(before)

		stats.Actions++
		stats.Elapsed = after.Sub(start)
		if cost > stats.WorstCost || stats.WorstLine == 0 {
			stats.WorstCost = cost
			stats.WorstLine = cur.Line
		}
		p.logger.LogAttrs(ctx, slog.LevelDebug, "dispatched",
			slog.Int("line", cur.Line),
			slog.String("kind", cur.Kind.String()),
			slog.Duration("offset", cur.Offset),
			slog.Duration("cost", cost),
			slog.Duration("late", before.Sub(start.Add(cur.Offset))),
		)

		if i+1 < len(actions) {
			budget := actions[i+1].Offset - cur.Offset
			if budget > 0 && cost > budget {
				return &OverrunError{Line: cur.Line, Kind: cur.Kind, Cost: cost, Budget: budget}
			}
		}
	}
	return nil
}

func (p *Player) open(s sink.Sink, prompt string) error {
	for _, step := range []func() error{
		s.Clear,
		s.ResetStyle,
		func() error { return s.Text(prompt) },
	} {
		if err := step(); err != nil {
			return &SinkError{Kind: script.KindClearScreen, Err: err}
		}
	}
	return nil
}

func dispatch(s sink.Sink, a *script.Action, prompt string) error {
	switch a.Kind {
	case script.KindPrintText:
		return s.Text(a.Text)
	case script.KindNewline:
		if err := s.LineBreak(); err != nil {
			return err
		}
		return s.Text(prompt)
	case script.KindNewlineNoPrompt:
		return s.LineBreak()
	case script.KindClearScreen:
		return s.Clear()
	case script.KindMoveCursor:
		return s.MoveCursor(a.Row, a.Col)
	case script.KindSpace:
		return s.Space()
	case script.KindStyleBold:
		return s.SetStyle(sink.StyleBold)
	case script.KindStyleItalic:
		return s.SetStyle(sink.StyleItalic)
	case script.KindStyleUnderline:
		return s.SetStyle(sink.StyleUnderline)
	case script.KindStyleStrikethrough:
		return s.SetStyle(sink.StyleStrikethrough)
	case script.KindStyleReset:
		return s.ResetStyle()
	case script.KindForeground:
		return s.Foreground(a.Color.R, a.Color.G, a.Color.B)
	case script.KindBackground:
		return s.Background(a.Color.R, a.Color.G, a.Color.B, a.Color.A)
	default:
		return fmt.Errorf("unknown action kind %d", int(a.Kind))
	}
}

func isSinkError(err error) bool {
	var se *SinkError
	return errors.As(err, &se)
}
