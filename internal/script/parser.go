package script

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	headerTag = "[username]"
	// whitespace is the set of characters a literal span may consist of and
	// still be dropped.
	whitespace = " \t\r\n\v\f"
	// maxLineLen is the longest script line accepted, in bytes. A longer
	// line fails the parse with bufio.ErrTooLong.
	maxLineLen = 1 << 20
	// maxStampPart bounds each timestamp component so the sum cannot
	// overflow a time.Duration.
	maxStampPart = 1_000_000
)

// Parse reads a script and returns the document together with any
// non-fatal diagnostics. If a fatal diagnostic is encountered, the document
// is nil and the error is that *Diagnostic; the diagnostics collected up to
// that point are still returned.
//
// Grammar, one line at a time:
//
//	[username]<display name>          line 1, required
//	// comment                         ignored, as are blank lines
//	[mm.ss.zzz]<text and [commands]>   every other line
//
// The sequences &[ and &] produce literal brackets and never delimit a
// command.
func Parse(r io.Reader) (*Document, []Diagnostic, error) {
	p := &parser{doc: &Document{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	// ScanLines already drops a single trailing \r, which covers CRLF input.
	for scanner.Scan() {
		p.line++
		var err error
		if p.line == 1 {
			err = p.header(scanner.Text())
		} else {
			err = p.body(scanner.Text())
		}
		if err != nil {
			return nil, p.diags, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, p.diags, fmt.Errorf("reading script: line %d: %w", p.line+1, err)
	}
	if p.line == 0 {
		return nil, p.diags, &Diagnostic{Line: 1, Code: CodeMissingHeader, Reason: "script is empty, line 1 must start with " + headerTag}
	}
	return p.doc, p.diags, nil
}

// ParseString is Parse over an in-memory script.
func ParseString(s string) (*Document, []Diagnostic, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	doc   *Document
	diags []Diagnostic
	line  int
	last  time.Duration
}

func (p *parser) warn(code Code, payload, reason string) {
	p.diags = append(p.diags, Diagnostic{Line: p.line, Code: code, Payload: payload, Reason: reason})
}

func (p *parser) fail(code Code, payload, reason string) error {
	return &Diagnostic{Line: p.line, Code: code, Payload: payload, Reason: reason}
}

func (p *parser) emit(a Action) {
	a.Line = p.line
	a.Offset = p.last
	p.doc.Actions = append(p.doc.Actions, a)
}

func (p *parser) header(line string) error {
	line = strings.TrimPrefix(line, "\ufeff")
	name, ok := strings.CutPrefix(line, headerTag)
	if !ok {
		return p.fail(CodeMissingHeader, line, "line 1 must start with "+headerTag)
	}
	p.doc.DisplayName = name
	return nil
}

func (p *parser) body(line string) error {
	if line == "" || strings.HasPrefix(line, "//") {
		return nil
	}

	if line[0] != '[' {
		p.warn(CodeBadTimestampFormat, line, "line must start with a [mm.ss.zzz] timestamp")
		return nil
	}
	end := indexClose(line, 1)
	if end < 0 {
		p.warn(CodeBadTimestampFormat, line, "timestamp block is not closed")
		return nil
	}
	raw := line[1:end]
	offset, err := parseTimestamp(raw)
	if err != nil {
		p.warn(CodeBadTimestampFormat, "["+raw+"]", err.Error())
		return nil
	}
	if offset < p.last {
		return p.fail(CodeTimestampRegression, "["+raw+"]",
			fmt.Sprintf("timestamp %s is earlier than the previous timestamp %s", FormatOffset(offset), FormatOffset(p.last)))
	}
	p.last = offset

	return p.spans(line[end+1:])
}

// spans walks the remainder of a line, alternating between literal text and
// bracketed commands.
func (p *parser) spans(rest string) error {
	var text strings.Builder
	flush := func() {
		s := text.String()
		text.Reset()
		if strings.Trim(s, whitespace) == "" {
			return
		}
		p.emit(Action{Kind: KindPrintText, Text: s})
	}

	for i := 0; i < len(rest); {
		switch c := rest[i]; {
		case c == '&' && i+1 < len(rest) && (rest[i+1] == '[' || rest[i+1] == ']'):
			text.WriteByte(rest[i+1])
			i += 2
		case c == '[':
			flush()
			end := indexClose(rest, i+1)
			if end < 0 {
				return p.fail(CodeUnterminatedCommand, rest[i:], "command is missing its closing ]")
			}
			if err := p.command(unescape(rest[i+1 : end])); err != nil {
				return err
			}
			i = end + 1
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()
	return nil
}

func (p *parser) command(cmd string) error {
	switch cmd {
	case "newline":
		p.emit(Action{Kind: KindNewline})
		return nil
	case "newlinenp":
		p.emit(Action{Kind: KindNewlineNoPrompt})
		return nil
	case "clear":
		p.emit(Action{Kind: KindClearScreen})
		return nil
	case "space":
		p.emit(Action{Kind: KindSpace})
		return nil
	case "bold":
		p.emit(Action{Kind: KindStyleBold})
		return nil
	case "italic":
		p.emit(Action{Kind: KindStyleItalic})
		return nil
	case "underline":
		p.emit(Action{Kind: KindStyleUnderline})
		return nil
	case "strikethrough":
		p.emit(Action{Kind: KindStyleStrikethrough})
		return nil
	}

	if args, ok := strings.CutPrefix(cmd, "mv "); ok {
		row, col, err := parseMove(args)
		if err != nil {
			p.warn(CodeBadMoveArgs, "["+cmd+"]", err.Error()+", command ignored")
			return nil
		}
		p.emit(Action{Kind: KindMoveCursor, Row: row, Col: col})
		return nil
	}

	if payload, ok := strings.CutPrefix(cmd, "color "); ok {
		if payload == "default" {
			p.emit(Action{Kind: KindStyleReset})
			return nil
		}
		rgba, err := p.hexColor(payload, 6)
		if err != nil {
			return err
		}
		p.emit(Action{Kind: KindForeground, Color: rgba})
		return nil
	}

	if payload, ok := strings.CutPrefix(cmd, "background "); ok {
		rgba, err := p.hexColor(payload, 8)
		if err != nil {
			return err
		}
		p.emit(Action{Kind: KindBackground, Color: rgba})
		return nil
	}

	if strings.HasPrefix(cmd, "size ") {
		p.warn(CodeUnsupportedCommand, "["+cmd+"]", "size is not supported, command ignored")
		return nil
	}

	p.warn(CodeUnsupportedCommand, "["+cmd+"]", "unknown command, ignored")
	return nil
}

// hexColor decodes rrggbb (digits == 6) or rrggbbaa (digits == 8).
func (p *parser) hexColor(payload string, digits int) (RGBA, error) {
	if len(payload) != digits || strings.Trim(payload, "0123456789abcdefABCDEF") != "" {
		return RGBA{}, p.fail(CodeBadColorFormat, payload, fmt.Sprintf("color must be exactly %d hex digits", digits))
	}
	var channels [4]uint8
	for i := 0; i < digits/2; i++ {
		v, err := strconv.ParseUint(payload[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGBA{}, p.fail(CodeBadColorValue, payload, "cannot convert color: "+err.Error())
		}
		channels[i] = uint8(v)
	}
	return RGBA{R: channels[0], G: channels[1], B: channels[2], A: channels[3]}, nil
}

// parseTimestamp decodes mm.ss.zzz. Components are not range checked, so
// [00.75.1500] is 76.5s.
func parseTimestamp(s string) (time.Duration, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected [mm.ss.zzz], got [%s]", s)
	}
	var v [3]uint64
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("expected [mm.ss.zzz], got [%s]", s)
		}
		if n > maxStampPart {
			return 0, fmt.Errorf("timestamp component %s is out of range", part)
		}
		v[i] = n
	}
	return time.Duration(v[0])*time.Minute +
		time.Duration(v[1])*time.Second +
		time.Duration(v[2])*time.Millisecond, nil
}

func parseMove(args string) (row, col int, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("mv takes a row and a column")
	}
	row, err = strconv.Atoi(fields[0])
	if err == nil {
		col, err = strconv.Atoi(fields[1])
	}
	if err != nil || row < 1 || col < 1 {
		return 0, 0, fmt.Errorf("mv row and column must be positive integers")
	}
	return row, col, nil
}

// indexClose returns the index of the first ] at or after from that is not
// part of an &] escape, or -1.
func indexClose(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '&':
			if i+1 < len(s) && (s[i+1] == '[' || s[i+1] == ']') {
				i++
			}
		case ']':
			return i
		}
	}
	return -1
}

var unescaper = strings.NewReplacer("&[", "[", "&]", "]")

func unescape(s string) string { return unescaper.Replace(s) }
