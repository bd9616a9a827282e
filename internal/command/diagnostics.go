package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/joeycumines/cliplay/internal/script"
)

// diagnosticPrinter writes parser diagnostics as "file:line: severity: text".
// Color is used only when the destination is a terminal.
type diagnosticPrinter struct {
	w        io.Writer
	logger   *slog.Logger
	location lipgloss.Style
	warning  lipgloss.Style
	fatal    lipgloss.Style
	payload  lipgloss.Style
}

func newDiagnosticPrinter(w io.Writer, logger *slog.Logger) *diagnosticPrinter {
	r := lipgloss.NewRenderer(w)
	return &diagnosticPrinter{
		w:        w,
		logger:   logger,
		location: r.NewStyle().Bold(true),
		warning:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		fatal:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		payload:  r.NewStyle().Faint(true),
	}
}

func (p *diagnosticPrinter) print(path string, d *script.Diagnostic) {
	label := p.warning.Render("warning")
	level := slog.LevelWarn
	if d.Fatal() {
		label = p.fatal.Render("error")
		level = slog.LevelError
	}
	loc := p.location.Render(fmt.Sprintf("%s:%d:", path, d.Line))
	msg := d.Reason
	if d.Payload != "" {
		msg += " " + p.payload.Render(fmt.Sprintf("%q", d.Payload))
	}
	_, _ = fmt.Fprintf(p.w, "%s %s: %s\n", loc, label, msg)

	if p.logger != nil {
		p.logger.Log(context.Background(), level, "script diagnostic",
			slog.String("file", path),
			slog.Int("line", d.Line),
			slog.String("code", d.Code.String()),
			slog.String("payload", d.Payload),
			slog.String("reason", d.Reason),
		)
	}
}

// printAll prints diags followed by fatal, if fatal is a diagnostic. It
// returns the number of warnings printed.
func (p *diagnosticPrinter) printAll(path string, diags []script.Diagnostic, fatal error) int {
	for i := range diags {
		p.print(path, &diags[i])
	}
	if d, ok := asDiagnostic(fatal); ok {
		p.print(path, d)
	}
	return len(diags)
}

func asDiagnostic(err error) (*script.Diagnostic, bool) {
	var d *script.Diagnostic
	ok := errors.As(err, &d)
	return d, ok
}
