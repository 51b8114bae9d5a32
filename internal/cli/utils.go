// Package cli provides CLI output helpers for gunggeum.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSearchOutcome writes a search outcome to w in the given format.
// Text output shows at most previewChars characters of the source text; 0 hides it.
func WriteSearchOutcome(w io.Writer, outcome *models.SearchOutcome, format OutputFormat, previewChars int) error {
	if format == OutputJSON {
		return writeJSON(w, outcome)
	}
	fmt.Fprintf(w, "\n📚 출처: %s\n", outcome.Source)
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "%s\n", strings.TrimSpace(outcome.Summary))
	if len(outcome.Questions) > 0 {
		fmt.Fprintln(w, "\n💡 더 궁금한 점:")
		for i, q := range outcome.Questions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, q)
		}
	}
	if previewChars > 0 && outcome.OriginalText != "" {
		fmt.Fprintln(w, "\n--- 원문 ---")
		fmt.Fprintln(w, utils.Truncate(outcome.OriginalText, previewChars))
	}
	fmt.Fprintln(w)
	return nil
}

// WriteAnswer writes a follow-up answer to w in the given format.
func WriteAnswer(w io.Writer, resp *models.QuestionResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s\n\n", strings.TrimSpace(resp.Answer))
	return nil
}

// WriteLogLines writes audit log lines to w, one per line.
func WriteLogLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
