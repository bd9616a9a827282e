package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Terminal writes ANSI escape sequences to an io.Writer. It assumes the
// device understands ANSI; the color profile only controls how truecolor
// values are downsampled.
type Terminal struct {
	w       *stickyWriter
	out     *termenv.Output
	profile termenv.Profile
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithProfile sets the color profile. The default is termenv.TrueColor.
func WithProfile(p termenv.Profile) TerminalOption {
	return func(t *Terminal) { t.profile = p }
}

// NewTerminal returns a Terminal writing to w. Writes go straight through to
// w, so w should not be buffered.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		w:       &stickyWriter{w: w},
		profile: termenv.TrueColor,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.out = termenv.NewOutput(t.w, termenv.WithProfile(t.profile))
	return t
}

// ParseProfile maps a config value to a termenv profile.
func ParseProfile(s string) (termenv.Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "truecolor", "24bit":
		return termenv.TrueColor, nil
	case "ansi256", "256":
		return termenv.ANSI256, nil
	case "ansi", "16":
		return termenv.ANSI, nil
	case "ascii", "none":
		return termenv.Ascii, nil
	default:
		return termenv.TrueColor, fmt.Errorf("unknown color profile %q (want truecolor, ansi256, ansi or ascii)", s)
	}
}

func (t *Terminal) Text(s string) error {
	_, _ = t.out.WriteString(s)
	return t.w.Err()
}

func (t *Terminal) LineBreak() error { return t.Text("\n") }

func (t *Terminal) Space() error { return t.Text(" ") }

func (t *Terminal) Clear() error {
	t.out.ClearScreen()
	return t.w.Err()
}

func (t *Terminal) MoveCursor(row, col int) error {
	t.out.MoveCursor(row, col)
	return t.w.Err()
}

func (t *Terminal) SetStyle(s Style) error {
	var seq string
	switch s {
	case StyleBold:
		seq = termenv.BoldSeq
	case StyleItalic:
		seq = termenv.ItalicSeq
	case StyleUnderline:
		seq = termenv.UnderlineSeq
	case StyleStrikethrough:
		seq = termenv.CrossOutSeq
	default:
		return fmt.Errorf("unknown style %d", s)
	}
	return t.sgr(seq)
}

func (t *Terminal) ResetStyle() error { return t.sgr(termenv.ResetSeq) }

func (t *Terminal) Foreground(r, g, b uint8) error {
	return t.sgr(t.colorSeq(r, g, b, false))
}

func (t *Terminal) Background(r, g, b, _ uint8) error {
	return t.sgr(t.colorSeq(r, g, b, true))
}

// colorSeq returns the SGR parameters for a color, or "" when the profile
// has no colors.
func (t *Terminal) colorSeq(r, g, b uint8, bg bool) string {
	if t.profile == termenv.TrueColor {
		prefix := termenv.Foreground
		if bg {
			prefix = termenv.Background
		}
		return fmt.Sprintf("%s;2;%d;%d;%d", prefix, r, g, b)
	}
	hex := fmt.Sprintf("#%02x%02x%02x", r, g, b)
	return t.profile.Convert(termenv.RGBColor(hex)).Sequence(bg)
}

func (t *Terminal) sgr(seq string) error {
	if seq == "" {
		return nil
	}
	_, _ = t.out.WriteString(termenv.CSI + seq + "m")
	return t.w.Err()
}

// stickyWriter remembers the first write error. termenv's cursor and screen
// helpers discard errors, so the Terminal checks Err after every operation.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.w.Write(p)
	if err != nil {
		s.err = fmt.Errorf("terminal write: %w", err)
	}
	return n, s.err
}

func (s *stickyWriter) Err() error { return s.err }
