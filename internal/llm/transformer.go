// Package llm provides the text-transform capability used for keyword extraction,
// summarization, question suggestion and question answering.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Transformer turns a system instruction and user content into generated text.
// Implementations fail with *DependencyError.
type Transformer interface {
	Transform(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Message is a role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DependencyError reports a failed text-transform call.
type DependencyError struct {
	Provider    string
	StatusCode  int
	RateLimited bool
	Err         error
}

func (e *DependencyError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a DependencyError caused by provider rate limiting.
func IsRateLimited(err error) bool {
	var de *DependencyError
	return errors.As(err, &de) && de.RateLimited
}

// ErrEmptyCompletion is returned when a provider answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")
