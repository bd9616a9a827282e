package sink

import (
	"bytes"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Sequences(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		op   func(*Terminal) error
		want string
	}{
		{"text", func(s *Terminal) error { return s.Text("héllo") }, "héllo"},
		{"linebreak", (*Terminal).LineBreak, "\n"},
		{"space", (*Terminal).Space, " "},
		{"clear", (*Terminal).Clear, "\x1b[2J\x1b[1;1H"},
		{"move", func(s *Terminal) error { return s.MoveCursor(3, 14) }, "\x1b[3;14H"},
		{"bold", func(s *Terminal) error { return s.SetStyle(StyleBold) }, "\x1b[1m"},
		{"italic", func(s *Terminal) error { return s.SetStyle(StyleItalic) }, "\x1b[3m"},
		{"underline", func(s *Terminal) error { return s.SetStyle(StyleUnderline) }, "\x1b[4m"},
		{"strikethrough", func(s *Terminal) error { return s.SetStyle(StyleStrikethrough) }, "\x1b[9m"},
		{"reset", (*Terminal).ResetStyle, "\x1b[0m"},
		{"foreground", func(s *Terminal) error { return s.Foreground(255, 0, 128) }, "\x1b[38;2;255;0;128m"},
		{"background", func(s *Terminal) error { return s.Background(1, 2, 3, 255) }, "\x1b[48;2;1;2;3m"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, tc.op(NewTerminal(&buf)))
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestTerminal_UnknownStyle(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.Error(t, NewTerminal(&buf).SetStyle(Style(42)))
	assert.Zero(t, buf.Len())
}

func TestTerminal_AsciiProfileDropsColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	term := NewTerminal(&buf, WithProfile(termenv.Ascii))
	require.NoError(t, term.Foreground(10, 20, 30))
	require.NoError(t, term.Background(10, 20, 30, 0))
	assert.Zero(t, buf.Len())

	require.NoError(t, term.SetStyle(StyleBold))
	assert.Equal(t, "\x1b[1m", buf.String())
}

func TestTerminal_ANSI256ProfileDownsamples(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	term := NewTerminal(&buf, WithProfile(termenv.ANSI256))
	require.NoError(t, term.Foreground(255, 0, 0))
	assert.Regexp(t, `^\x1b\[38;5;\d+m$`, buf.String())
}

type failingWriter struct {
	err   error
	calls int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, f.err
}

func TestTerminal_WriteErrorIsSticky(t *testing.T) {
	t.Parallel()
	w := &failingWriter{err: fmt.Errorf("write stdout: %w", syscall.EPIPE)}
	term := NewTerminal(w)

	err := term.Text("x")
	require.Error(t, err)
	assert.True(t, IsBrokenPipe(err))

	err = term.Clear()
	require.Error(t, err)
	assert.True(t, IsBrokenPipe(err))
	assert.Equal(t, 1, w.calls)
}

func TestIsBrokenPipe(t *testing.T) {
	t.Parallel()
	assert.False(t, IsBrokenPipe(nil))
	assert.False(t, IsBrokenPipe(errors.New("boom")))
	assert.True(t, IsBrokenPipe(syscall.EPIPE))
}

func TestParseProfile(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]termenv.Profile{
		"":          termenv.TrueColor,
		"TrueColor": termenv.TrueColor,
		"ansi256":   termenv.ANSI256,
		"ansi":      termenv.ANSI,
		"ascii":     termenv.Ascii,
	} {
		got, err := ParseProfile(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseProfile("sepia")
	assert.Error(t, err)
}

func TestRecorder_OpsAndCursor(t *testing.T) {
	t.Parallel()
	r := NewRecorder()

	require.NoError(t, r.Text("ab"))
	require.NoError(t, r.Space())
	require.NoError(t, r.Text("日本"))
	row, col := r.Cursor()
	assert.Equal(t, 1, row)
	assert.Equal(t, 8, col)

	require.NoError(t, r.LineBreak())
	row, col = r.Cursor()
	assert.Equal(t, 2, row)
	assert.Equal(t, 1, col)

	require.NoError(t, r.MoveCursor(10, 20))
	row, col = r.Cursor()
	assert.Equal(t, 10, row)
	assert.Equal(t, 20, col)

	require.NoError(t, r.Clear())
	row, col = r.Cursor()
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	assert.Equal(t, "ab 日本\n", r.Transcript())
	ops := r.Ops()
	require.Len(t, ops, 6)
	assert.Equal(t, Op{Kind: OpMoveCursor, Row: 10, Col: 20}, ops[4])
}

func TestRecorder_Styles(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	require.NoError(t, r.SetStyle(StyleBold))
	require.NoError(t, r.SetStyle(StyleUnderline))
	assert.True(t, r.Active(StyleBold))
	assert.True(t, r.Active(StyleUnderline))
	assert.False(t, r.Active(StyleItalic))

	_, ok := r.ForegroundColor()
	assert.False(t, ok)

	require.NoError(t, r.Foreground(1, 2, 3))
	require.NoError(t, r.Background(4, 5, 6, 7))
	fg, ok := r.ForegroundColor()
	require.True(t, ok)
	assert.Equal(t, Color{R: 1, G: 2, B: 3}, fg)
	bg, ok := r.BackgroundColor()
	require.True(t, ok)
	assert.Equal(t, Color{R: 4, G: 5, B: 6, A: 7}, bg)

	require.NoError(t, r.Foreground(9, 9, 9))
	fg, _ = r.ForegroundColor()
	assert.Equal(t, Color{R: 9, G: 9, B: 9}, fg)

	require.NoError(t, r.ResetStyle())
	assert.False(t, r.Active(StyleBold))
	_, ok = r.ForegroundColor()
	assert.False(t, ok)
	_, ok = r.BackgroundColor()
	assert.False(t, ok)

	ops := r.Ops()
	assert.Equal(t, Op{Kind: OpForeground, R: 1, G: 2, B: 3}, ops[2])
	assert.Equal(t, Op{Kind: OpBackground, R: 4, G: 5, B: 6, A: 7}, ops[3])
}

func TestRecorder_Hook(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	boom := errors.New("boom")
	var seen []OpKind
	r.Hook = func(op Op) error {
		seen = append(seen, op.Kind)
		if op.Kind == OpClear {
			return boom
		}
		return nil
	}
	require.NoError(t, r.Text("a"))
	require.ErrorIs(t, r.Clear(), boom)
	assert.Equal(t, []OpKind{OpText, OpClear}, seen)
	assert.Len(t, r.Ops(), 2)
}

func TestSinkImplementations(t *testing.T) {
	t.Parallel()
	var _ Sink = NewTerminal(&bytes.Buffer{})
	var _ Sink = NewRecorder()
	assert.Equal(t, "strikethrough", StyleStrikethrough.String())
	assert.Equal(t, "move", OpMoveCursor.String())
}
