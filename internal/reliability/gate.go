// Package reliability decides whether a generated summary may be shown for a keyword.
package reliability

import (
	"strings"

	"github.com/hyperjump/gunggeum/pkg/utils"
)

// HedgingPhrases are phrases by which a summary admits it lacks information.
var HedgingPhrases = []string{"정보가 부족합니다", "찾지 못했어요"}

// Verdict explains a reliability decision for logging.
type Verdict struct {
	Reliable bool
	Evidence bool
	Hedging  bool
}

// IsReliable reports whether summary can be returned for keyword.
// lowestPriority marks text from web search.
func IsReliable(originalText, summary, keyword string, lowestPriority bool) bool {
	return Evaluate(originalText, summary, keyword, lowestPriority).Reliable
}

// Evaluate computes the full verdict behind IsReliable.
func Evaluate(originalText, summary, keyword string, lowestPriority bool) Verdict {
	v := Verdict{
		Evidence: HasEvidence(originalText, summary, keyword),
		Hedging:  Hedges(summary),
	}
	if lowestPriority {
		v.Reliable = webSearchPolicy(v)
	} else {
		v.Reliable = encyclopediaPolicy(v)
	}
	return v
}

// webSearchPolicy applies to text from the lowest-priority source.
func webSearchPolicy(v Verdict) bool {
	return v.Evidence && !v.Hedging
}

func encyclopediaPolicy(v Verdict) bool {
	return v.Evidence && !v.Hedging
}

// HasEvidence reports whether the keyword, or its first token, appears in the
// original text or the summary, ignoring case. A blank keyword has no evidence.
func HasEvidence(originalText, summary, keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	text := strings.ToLower(originalText)
	sum := strings.ToLower(summary)
	first := utils.FirstToken(kw)
	return strings.Contains(text, kw) || strings.Contains(sum, kw) ||
		strings.Contains(text, first) || strings.Contains(sum, first)
}

// Hedges reports whether summary contains a hedging phrase.
func Hedges(summary string) bool {
	for _, p := range HedgingPhrases {
		if strings.Contains(summary, p) {
			return true
		}
	}
	return false
}
