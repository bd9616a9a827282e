package sink

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rivo/uniseg"
)

// OpKind identifies a recorded operation.
type OpKind int

const (
	OpText OpKind = iota
	OpLineBreak
	OpSpace
	OpClear
	OpMoveCursor
	OpSetStyle
	OpResetStyle
	OpForeground
	OpBackground
)

var opNames = [...]string{
	OpText:       "text",
	OpLineBreak:  "linebreak",
	OpSpace:      "space",
	OpClear:      "clear",
	OpMoveCursor: "move",
	OpSetStyle:   "style",
	OpResetStyle: "reset",
	OpForeground: "fg",
	OpBackground: "bg",
}

func (k OpKind) String() string {
	if k >= 0 && int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one recorded sink call. Only the fields relevant to Kind are set.
type Op struct {
	Kind       OpKind
	Text       string
	Row, Col   int
	Style      Style
	R, G, B, A uint8
}

// Recorder is an in-memory Sink. Besides the raw operations it tracks where
// the cursor would be on an unbounded screen, using grapheme cluster widths
// for text.
type Recorder struct {
	// Hook, if set, runs after each operation is recorded. A non-nil return
	// is reported as the operation's error.
	Hook func(op Op) error

	mu       sync.Mutex
	ops      []Op
	row, col int
	styles   map[Style]bool
	fg, bg   *Color
}

// Color is a color set through the Recorder. A is zero for foregrounds.
type Color struct {
	R, G, B, A uint8
}

// NewRecorder returns an empty Recorder with the cursor at (1, 1).
func NewRecorder() *Recorder {
	return &Recorder{row: 1, col: 1, styles: make(map[Style]bool)}
}

func (r *Recorder) record(op Op) error {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	switch op.Kind {
	case OpText:
		r.col += uniseg.StringWidth(op.Text)
	case OpSpace:
		r.col++
	case OpLineBreak:
		r.row++
		r.col = 1
	case OpClear:
		r.row, r.col = 1, 1
	case OpMoveCursor:
		r.row, r.col = op.Row, op.Col
	case OpSetStyle:
		r.styles[op.Style] = true
	case OpResetStyle:
		clear(r.styles)
		r.fg, r.bg = nil, nil
	case OpForeground:
		r.fg = &Color{R: op.R, G: op.G, B: op.B}
	case OpBackground:
		r.bg = &Color{R: op.R, G: op.G, B: op.B, A: op.A}
	}
	hook := r.Hook
	r.mu.Unlock()

	if hook != nil {
		return hook(op)
	}
	return nil
}

func (r *Recorder) Text(s string) error { return r.record(Op{Kind: OpText, Text: s}) }

func (r *Recorder) LineBreak() error { return r.record(Op{Kind: OpLineBreak}) }

func (r *Recorder) Space() error { return r.record(Op{Kind: OpSpace}) }

func (r *Recorder) Clear() error { return r.record(Op{Kind: OpClear}) }

func (r *Recorder) MoveCursor(row, col int) error {
	return r.record(Op{Kind: OpMoveCursor, Row: row, Col: col})
}

func (r *Recorder) SetStyle(s Style) error { return r.record(Op{Kind: OpSetStyle, Style: s}) }

func (r *Recorder) ResetStyle() error { return r.record(Op{Kind: OpResetStyle}) }

func (r *Recorder) Foreground(red, green, blue uint8) error {
	return r.record(Op{Kind: OpForeground, R: red, G: green, B: blue})
}

func (r *Recorder) Background(red, green, blue, alpha uint8) error {
	return r.record(Op{Kind: OpBackground, R: red, G: green, B: blue, A: alpha})
}

// Ops returns a copy of the recorded operations.
func (r *Recorder) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Cursor returns the modelled 1-based cursor position.
func (r *Recorder) Cursor() (row, col int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.row, r.col
}

// Active reports whether a style is currently on.
func (r *Recorder) Active(s Style) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.styles[s]
}

// ForegroundColor returns the current text color, if one is set.
func (r *Recorder) ForegroundColor() (Color, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fg == nil {
		return Color{}, false
	}
	return *r.fg, true
}

// BackgroundColor returns the current background color, if one is set.
func (r *Recorder) BackgroundColor() (Color, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bg == nil {
		return Color{}, false
	}
	return *r.bg, true
}

// Transcript returns the printed text with line breaks, ignoring styling
// and cursor movement.
func (r *Recorder) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, op := range r.ops {
		switch op.Kind {
		case OpText:
			b.WriteString(op.Text)
		case OpSpace:
			b.WriteByte(' ')
		case OpLineBreak:
			b.WriteByte('\n')
		}
	}
	return b.String()
}
