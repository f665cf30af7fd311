package pipeline

import (
	"fmt"
	"io"
	"strings"
)

// Summary aggregates a batch's outcome.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
}

// Summarize counts the results of b.
func Summarize(b *Batch) Summary {
	s := Summary{RunID: b.RunID, Total: len(b.Results)}
	for _, r := range b.Results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatReport renders the aggregate summary and, when verbose, one line per
// ZIP code with its error messages indented beneath it.
func FormatReport(b *Batch, verbose bool) string {
	s := Summarize(b)

	var sb strings.Builder
	sb.WriteString("\nIngestion completed:\n")
	fmt.Fprintf(&sb, "  Total ZIP codes processed: %d\n", s.Total)
	fmt.Fprintf(&sb, "  Successful: %d\n", s.Succeeded)
	fmt.Fprintf(&sb, "  Failed: %d\n", s.Failed)
	if b.Interrupted {
		sb.WriteString("  Interrupted before all ZIP codes were processed\n")
	}

	if !verbose {
		return sb.String()
	}
	for _, r := range b.Results {
		status := "✗"
		if r.Success {
			status = "✓"
		}
		fmt.Fprintf(&sb, "  %s %s: %d representatives\n", status, r.ZipCode, len(r.Representatives))
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "    Error: %s\n", e)
		}
	}
	return sb.String()
}

// WriteReport writes FormatReport(b, verbose) to w.
func WriteReport(w io.Writer, b *Batch, verbose bool) error {
	_, err := io.WriteString(w, FormatReport(b, verbose))
	return err
}
