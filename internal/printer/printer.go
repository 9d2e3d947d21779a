// Package printer formats CLI output: coloured status lines, practice
// outcomes and pattern tables.
package printer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/practice"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green line with a checkmark prefix.
func Success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow line.
func Warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! %s\n", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line.
func Step(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints a titled error with an explanation and suggestions to stderr
// and returns a plain error for Cobra, which is set not to print it again.
func Error(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Outcome prints one practice outcome.
func Outcome(w io.Writer, out practice.Outcome) {
	switch out.Kind {
	case practice.OutcomeCorrect:
		green.Fprintf(w, "✓ %s", out.Feedback)
		fmt.Fprintf(w, "  (score %d, streak %d)", out.Score, out.Streak)
		cyan.Fprintf(w, "  next: %s\n", out.Next)
	case practice.OutcomeWrong:
		yellow.Fprintf(w, "✗ %s\n", out.Feedback)
	case practice.OutcomeFeedback:
		yellow.Fprintf(w, "• %s", out.Feedback)
		if len(out.MissingFeatures) > 0 {
			names := make([]string, len(out.MissingFeatures))
			for i, f := range out.MissingFeatures {
				names[i] = string(f)
			}
			fmt.Fprintf(w, "  (missing: %s)", strings.Join(names, ", "))
		}
		fmt.Fprintln(w)
	case practice.OutcomeNoDetection:
		red.Fprintf(w, "%s\n", out.Feedback)
	default:
		fmt.Fprintf(w, "  %s\n", out.Feedback)
	}
}

var groupNames = []string{"Thumb", "Index", "Middle", "Ring", "Pinky"}

// Patterns renders a pattern library as a table, one finger group per
// column.
func Patterns(w io.Writer, patterns []handshape.Pattern) error {
	table := tablewriter.NewWriter(w)
	table.Header(append([]string{"Label", "Kind"}, groupNames...))

	for _, p := range patterns {
		row := []string{p.Label, string(p.Kind)}
		for _, j := range p.Joints {
			row = append(row, formatTriple(j))
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatTriple(j [3]float64) string {
	parts := make([]string, 3)
	for i, v := range j {
		parts[i] = strconv.FormatFloat(v, 'g', 3, 64)
	}
	return strings.Join(parts, " ")
}
