package script

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per diagnostic code. A *Diagnostic unwraps to the
// sentinel for its code.
var (
	ErrMissingHeader       = errors.New("missing header")
	ErrBadTimestampFormat  = errors.New("bad timestamp format")
	ErrTimestampRegression = errors.New("timestamp regression")
	ErrUnterminatedCommand = errors.New("unterminated command")
	ErrBadColorFormat      = errors.New("bad color format")
	ErrBadColorValue       = errors.New("bad color value")
	ErrBadMoveArgs         = errors.New("bad move arguments")
	ErrUnsupportedCommand  = errors.New("unsupported command")
)

// Code classifies a diagnostic.
type Code int

const (
	CodeMissingHeader Code = iota + 1
	CodeBadTimestampFormat
	CodeTimestampRegression
	CodeUnterminatedCommand
	CodeBadColorFormat
	CodeBadColorValue
	CodeBadMoveArgs
	CodeUnsupportedCommand
)

var codeErrors = map[Code]error{
	CodeMissingHeader:       ErrMissingHeader,
	CodeBadTimestampFormat:  ErrBadTimestampFormat,
	CodeTimestampRegression: ErrTimestampRegression,
	CodeUnterminatedCommand: ErrUnterminatedCommand,
	CodeBadColorFormat:      ErrBadColorFormat,
	CodeBadColorValue:       ErrBadColorValue,
	CodeBadMoveArgs:         ErrBadMoveArgs,
	CodeUnsupportedCommand:  ErrUnsupportedCommand,
}

// Fatal reports whether a diagnostic with this code aborts the parse.
func (c Code) Fatal() bool {
	switch c {
	case CodeBadTimestampFormat, CodeBadMoveArgs, CodeUnsupportedCommand:
		return false
	default:
		return true
	}
}

func (c Code) String() string {
	if err, ok := codeErrors[c]; ok {
		return err.Error()
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Diagnostic is a parser finding tied to a script line. Fatal diagnostics
// are returned as the parse error; the rest are collected and parsing
// continues.
type Diagnostic struct {
	Line    int
	Code    Code
	Payload string
	Reason  string
}

// Fatal reports whether the diagnostic aborted the parse.
func (d *Diagnostic) Fatal() bool { return d.Code.Fatal() }

func (d *Diagnostic) Error() string {
	if d.Payload == "" {
		return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
	}
	return fmt.Sprintf("line %d: %q: %s", d.Line, d.Payload, d.Reason)
}

func (d *Diagnostic) Unwrap() error { return codeErrors[d.Code] }
