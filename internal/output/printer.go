// Package output provides CLI output formatting utilities.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode represents color output mode.
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default).
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on.
	ColorAlways
	// ColorNever forces colors off.
	ColorNever
)

// ParseColorMode parses a string into a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment.
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default: // ColorAuto
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return true
	}
}

// Options configures the Printer.
type Options struct {
	ColorMode ColorMode
	Quiet     bool
}

// Printer handles formatted output to the terminal.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	quiet     bool
}

// NewPrinter creates a printer writing to stdout and stderr.
func NewPrinter(opts Options) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, opts)
}

// NewPrinterWithWriters creates a printer with custom writers.
func NewPrinterWithWriters(out, errOut io.Writer, opts Options) *Printer {
	return &Printer{
		out:       out,
		err:       errOut,
		useColors: ResolveColors(opts.ColorMode),
		quiet:     opts.Quiet,
	}
}

// Out returns the printer's standard output writer.
func (p *Printer) Out() io.Writer { return p.out }

// IsQuiet returns whether the printer is in quiet mode.
func (p *Printer) IsQuiet() bool { return p.quiet }

// Info prints an informational message.
func (p *Printer) Info(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, format+"\n", args...)
	}
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
	}
}

// Warning prints a warning message.
func (p *Printer) Warning(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
	}
}

// Error prints an error message.
func (p *Printer) Error(format string, args ...interface{}) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
	} else {
		fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
	}
}

// Print prints a plain message.
func (p *Printer) Print(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// ActionBadge returns a one-character marker for a sync action.
func (p *Printer) ActionBadge(action string) string {
	if !p.useColors {
		return fmt.Sprintf("[%s]", action)
	}
	switch action {
	case "create":
		return color.GreenString("+")
	case "update":
		return color.CyanString("~")
	case "pull":
		return color.MagentaString("v")
	case "in-sync":
		return color.New(color.Faint).Sprint("=")
	default:
		return color.RedString("!")
	}
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	if p.useColors {
		return color.New(color.Bold).Sprint(text)
	}
	return text
}

// Dim returns dimmed text.
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}
