package summary

import (
	"regexp"
	"strings"
)

// enumeration matches list markers such as "1.", "2)", "-", "*", "•" or "Q1:".
var enumeration = regexp.MustCompile(`^(?:\d+[.)]\s+|-\s+|[*•·]\s*|Q\d+[.:)]?\s*)`)

// ParseQuestions splits a newline-delimited reply into at most limit questions.
// Enumeration markers are stripped and blank lines dropped. The result is never nil.
func ParseQuestions(text string, limit int) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		q := strings.TrimSpace(line)
		q = strings.TrimSpace(enumeration.ReplaceAllString(q, ""))
		q = strings.Trim(q, "*")
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
