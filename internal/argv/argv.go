// Package argv splits command templates into argument vectors using a
// POSIX-like tokenizer, and substitutes named placeholders into them.
//
// Rules:
//   - Unquoted spaces, tabs and newlines separate arguments.
//   - Single quotes preserve their contents literally.
//   - Inside double quotes a backslash escapes only $, `, ", \ and newline.
//   - Outside quotes a backslash escapes the next rune.
//   - No environment expansion, globbing, or comment handling.
package argv

import (
	"errors"
	"iter"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnterminatedQuote is returned when a quoted section never closes.
	ErrUnterminatedQuote = errors.New("argv: unterminated quote")
	// ErrTrailingBackslash is returned when the input ends in an escape.
	ErrTrailingBackslash = errors.New("argv: trailing backslash")
	// ErrEmpty is returned when a template yields no arguments.
	ErrEmpty = errors.New("argv: empty command")
)

// ArgsSeq yields arguments parsed from s. Malformed trailing input (an open
// quote or a dangling backslash) is yielded as-is; use Split to detect it.
func ArgsSeq(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = scan(s, yield)
	}
}

// Split returns the arguments in s, or an error if s is malformed.
func Split(s string) ([]string, error) {
	out := make([]string, 0, 4)
	err := scan(s, func(a string) bool {
		out = append(out, a)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scan(s string, yield func(string) bool) error {
	var (
		buf      strings.Builder
		started  bool
		inSingle bool
		inDouble bool
		esc      bool
	)
	flush := func() bool {
		if !started {
			return true
		}
		a := buf.String()
		buf.Reset()
		started = false
		return yield(a)
	}

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		switch {
		case esc:
			esc = false
			if inDouble && !strings.ContainsRune("$`\"\\\n", r) {
				buf.WriteByte('\\')
			}
			if r == '\n' {
				continue
			}
			started = true
			buf.WriteRune(r)
		case inSingle:
			if r == '\'' {
				inSingle = false
				continue
			}
			buf.WriteRune(r)
		case r == '\\':
			esc = true
		case inDouble:
			if r == '"' {
				inDouble = false
				continue
			}
			buf.WriteRune(r)
		case r == '\'':
			inSingle, started = true, true
		case r == '"':
			inDouble, started = true, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !flush() {
				return nil
			}
		default:
			started = true
			buf.WriteRune(r)
		}
	}

	var err error
	switch {
	case inSingle || inDouble:
		err = ErrUnterminatedQuote
	case esc:
		err = ErrTrailingBackslash
	}
	flush()
	return err
}

// Expand splits template and replaces every {name} occurrence inside each
// argument with vars[name]. Substitution happens after splitting, so values
// containing spaces or quotes stay a single argument. Unknown placeholders
// are left untouched.
func Expand(template string, vars map[string]string) ([]string, error) {
	args, err := Split(template)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, ErrEmpty
	}
	if len(vars) != 0 {
		pairs := make([]string, 0, len(vars)*2)
		for k, v := range vars {
			pairs = append(pairs, "{"+k+"}", v)
		}
		r := strings.NewReplacer(pairs...)
		for i, a := range args {
			args[i] = r.Replace(a)
		}
	}
	return args, nil
}

// Contains reports whether any argument of template references {name}.
func Contains(template, name string) bool {
	for a := range ArgsSeq(template) {
		if strings.Contains(a, "{"+name+"}") {
			return true
		}
	}
	return false
}
