package script

import (
	"fmt"
	"time"
)

// Kind identifies what an Action does when it is dispatched.
type Kind int

const (
	KindPrintText Kind = iota
	KindNewline
	KindNewlineNoPrompt
	KindClearScreen
	KindMoveCursor
	KindSpace
	KindStyleBold
	KindStyleItalic
	KindStyleUnderline
	KindStyleStrikethrough
	KindStyleReset
	KindForeground
	KindBackground
)

var kindNames = [...]string{
	KindPrintText:          "print",
	KindNewline:            "newline",
	KindNewlineNoPrompt:    "newlinenp",
	KindClearScreen:        "clear",
	KindMoveCursor:         "mv",
	KindSpace:              "space",
	KindStyleBold:          "bold",
	KindStyleItalic:        "italic",
	KindStyleUnderline:     "underline",
	KindStyleStrikethrough: "strikethrough",
	KindStyleReset:         "reset",
	KindForeground:         "color",
	KindBackground:         "background",
}

// String returns the script keyword that produces the kind, or "print" for
// literal text.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// RGBA is a truecolor value. A is only meaningful for background colors.
type RGBA struct {
	R, G, B, A uint8
}

// Action is one scheduled unit of playback work.
type Action struct {
	// Line is the 1-based line in the script the action came from.
	Line int
	// Offset is the time since playback start at which the action is due.
	Offset time.Duration
	Kind   Kind
	// Text is set for KindPrintText only.
	Text string
	// Row and Col are 1-based, set for KindMoveCursor only.
	Row, Col int
	// Color is set for KindForeground and KindBackground only.
	Color RGBA
}

// Document is the result of a successful parse.
type Document struct {
	DisplayName string
	Actions     []Action
}

// Duration returns the offset of the last action, which is the nominal
// length of the playback.
func (d *Document) Duration() time.Duration {
	if d == nil || len(d.Actions) == 0 {
		return 0
	}
	return d.Actions[len(d.Actions)-1].Offset
}

// FormatOffset renders an offset the way scripts write it: mm.ss.zzz.
func FormatOffset(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d.%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
