package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// NotFoundOptions configures the invalid-name error message.
type NotFoundOptions struct {
	Kind        string   // what was looked up: "service", "action", "resource"
	Name        string   // the invalid input
	Suggestions []string // near-matches, may be empty
	HelpCommand string   // command that lists valid names
	NoColor     bool
}

// FormatNotFound creates the standardized invalid-name message with
// suggestions and a pointer to the listing command.
//
// Example output:
//
//	Error: invalid service name 's3x'
//
//	Did you mean one of these?
//	  - s3
//	  - s3express
//
//	Use 'svcref services' to see all available services.
func FormatNotFound(opts NotFoundOptions) string {
	var b strings.Builder

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		red.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	red.Fprintf(&b, "Error: invalid %s name '%s'\n", opts.Kind, opts.Name)

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintln(&b, "Did you mean one of these?")
		for _, suggestion := range opts.Suggestions {
			fmt.Fprintf(&b, "  - %s\n", suggestion)
		}
	}

	if opts.HelpCommand != "" {
		b.WriteString("\n")
		cyan.Fprintf(&b, "Use '%s' to see all available %ss.\n", opts.HelpCommand, opts.Kind)
	}

	return b.String()
}

// WriteNotFound writes the formatted message to the writer.
func WriteNotFound(w io.Writer, opts NotFoundOptions) {
	fmt.Fprint(w, FormatNotFound(opts))
}

// FormatWarning creates a yellow warning line.
func FormatWarning(message string, noColor bool) string {
	yellow := color.New(color.FgYellow)
	if noColor {
		yellow.DisableColor()
	}
	return yellow.Sprintf("Warning: %s", message)
}
