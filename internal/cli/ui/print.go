// Package ui holds the terminal helpers the commands share: status lines,
// a spinner for long-running fetches, and the tree/key-value renderers the
// inspect command uses.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Success prints a green checkmark line.
func Success(w io.Writer, format string, args ...any) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Info prints a cyan informational line.
func Info(w io.Writer, format string, args ...any) {
	cyan := color.New(color.FgCyan)
	cyan.Fprintf(w, "→ %s\n", fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line.
func Warn(w io.Writer, format string, args ...any) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Fail prints a red failure line.
func Fail(w io.Writer, format string, args ...any) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// ErrorOptions configures a standardized error block with suggestions and
// follow-up commands.
type ErrorOptions struct {
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
}

// FormatError renders a standardized error message.
//
// Example output:
//
//	✗ CONNECTION FAILED: could not reach http://localhost:3000
//
//	   • Check that the instance is running and reachable
//
//	   → Get help: metasync --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	red := color.New(color.FgRed, color.Bold)
	if opts.Context != "" {
		red.Fprintf(&b, "✗ %s: %s\n", strings.ToUpper(opts.Context), opts.Problem)
	} else {
		red.Fprintf(&b, "✗ %s\n", opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		for _, s := range opts.Suggestions {
			yellow.Fprintf(&b, "   • %s\n", s)
		}
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error block to the writer.
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}
