package command

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/cliplay/internal/script"
)

// CheckCommand parses scripts without playing them.
type CheckCommand struct {
	*BaseCommand
	strict bool
}

// NewCheckCommand returns the check command.
func NewCheckCommand() *CheckCommand {
	return &CheckCommand{
		BaseCommand: NewBaseCommand(
			"check",
			"Parse scripts and report problems without playing them",
			"check [options] <script-file>...",
		),
	}
}

func (c *CheckCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.strict, "strict", false, "Treat warnings as failures")
}

func (c *CheckCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no script files given (usage: %s)", c.Usage())
	}

	printer := newDiagnosticPrinter(stderr, nil)
	failed := 0
	for _, path := range args {
		if !c.checkOne(path, stdout, printer) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(args))
	}
	return nil
}

func (c *CheckCommand) checkOne(path string, stdout io.Writer, printer *diagnosticPrinter) bool {
	f, err := os.Open(path)
	if err != nil {
		_, _ = fmt.Fprintf(stdout, "%s: FAILED (%v)\n", path, err)
		return false
	}
	defer f.Close()

	doc, diags, err := script.Parse(f)
	warnings := printer.printAll(path, diags, err)
	if err != nil {
		_, _ = fmt.Fprintf(stdout, "%s: FAILED (%d warnings, %v)\n", path, warnings, err)
		return false
	}

	status := "ok"
	ok := true
	if c.strict && warnings > 0 {
		status, ok = "FAILED", false
	}
	_, _ = fmt.Fprintf(stdout, "%s: %s (%q, %d actions, %s, %d warnings)\n",
		path, status, doc.DisplayName, len(doc.Actions), script.FormatOffset(doc.Duration()), warnings)
	return ok
}
