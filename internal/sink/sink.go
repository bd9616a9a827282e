// Package sink defines the narrow set of display operations playback needs,
// with a real terminal backend and an in-memory recorder.
package sink

import (
	"errors"
	"syscall"
)

// Style is an independently toggled text attribute.
type Style int

const (
	StyleBold Style = iota
	StyleItalic
	StyleUnderline
	StyleStrikethrough
)

func (s Style) String() string {
	switch s {
	case StyleBold:
		return "bold"
	case StyleItalic:
		return "italic"
	case StyleUnderline:
		return "underline"
	case StyleStrikethrough:
		return "strikethrough"
	default:
		return "unknown"
	}
}

// Sink renders playback operations. Implementations must not buffer: when a
// method returns, its output has been handed to the underlying device. A
// non-nil error means the device is unusable and playback should stop.
type Sink interface {
	// Text writes literal text.
	Text(s string) error
	// LineBreak writes a bare line break.
	LineBreak() error
	// Space writes a single space character.
	Space() error
	// Clear clears the screen and moves the cursor to (1, 1).
	Clear() error
	// MoveCursor moves to the absolute 1-based position.
	MoveCursor(row, col int) error
	// SetStyle turns an attribute on.
	SetStyle(s Style) error
	// ResetStyle turns every attribute and color off.
	ResetStyle() error
	// Foreground sets a 24-bit text color.
	Foreground(r, g, b uint8) error
	// Background sets a 24-bit background color. Alpha may be ignored.
	Background(r, g, b, a uint8) error
}

// IsBrokenPipe reports whether err means the reader of the output went away.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
