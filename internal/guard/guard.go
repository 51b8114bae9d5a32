// Package guard screens raw search queries before any external call is made.
package guard

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Reason identifies the rule that rejected a query.
type Reason string

const (
	ReasonEmpty   Reason = "empty"
	ReasonMarkup  Reason = "markup"
	ReasonSQL     Reason = "sql"
	ReasonURL     Reason = "url"
	ReasonSpam    Reason = "spam"
	ReasonSymbols Reason = "symbols"
	ReasonProfane Reason = "profane"
)

// RejectError is returned by Screen when a query must not be processed.
type RejectError struct {
	Reason Reason
	// Blocked is true for word-list hits, which are reported differently to the caller.
	Blocked bool
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("query rejected: %s", e.Reason)
}

var (
	scriptTag   = regexp.MustCompile(`(?i)<\s*script`)
	sqlSelect   = regexp.MustCompile(`(?i)select\s+.*from`)
	sqlUnion    = regexp.MustCompile(`(?i)union\s+select`)
	sqlChars    = regexp.MustCompile(`['";]`)
	embeddedURL = regexp.MustCompile(`(?i)(https?|ftp)://`)
	spaceRun    = regexp.MustCompile(`\s{3,}`)
	symbolsOnly = regexp.MustCompile(`^[^가-힣a-zA-Z0-9]{3,}$`)
)

// Guard applies the screening rules in order; the first violated rule wins.
type Guard struct {
	words  *WordList
	policy *bluemonday.Policy
}

// New creates a Guard backed by words. A nil words uses the built-in list only.
func New(words *WordList) *Guard {
	if words == nil {
		words = NewWordList(nil)
	}
	return &Guard{words: words, policy: bluemonday.StrictPolicy()}
}

// Words returns the word list used for the profanity rule.
func (g *Guard) Words() *WordList {
	return g.words
}

// Screen returns nil when the query may proceed, or a *RejectError.
// Screen has no side effects.
func (g *Guard) Screen(rawQuery string) error {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return &RejectError{Reason: ReasonEmpty}
	}
	if g.hasMarkup(q) {
		return &RejectError{Reason: ReasonMarkup}
	}
	if sqlSelect.MatchString(q) || sqlUnion.MatchString(q) || sqlChars.MatchString(q) {
		return &RejectError{Reason: ReasonSQL}
	}
	if embeddedURL.MatchString(q) {
		return &RejectError{Reason: ReasonURL}
	}
	if spaceRun.MatchString(q) {
		return &RejectError{Reason: ReasonSpam}
	}
	if symbolsOnly.MatchString(q) {
		return &RejectError{Reason: ReasonSymbols}
	}
	if g.words.Contains(q) {
		return &RejectError{Reason: ReasonProfane, Blocked: true}
	}
	return nil
}

// hasMarkup reports whether q carries an HTML tag. The strict policy strips every
// tag and escapes text, so any difference from plain escaping means a tag was removed.
func (g *Guard) hasMarkup(q string) bool {
	if scriptTag.MatchString(q) {
		return true
	}
	if !strings.Contains(q, "<") {
		return false
	}
	return g.policy.Sanitize(q) != html.EscapeString(q)
}
