package search

import (
	"errors"
	"fmt"

	"github.com/hyperjump/gunggeum/internal/source"
)

// ErrNotFound is returned when no usable explanation could be produced.
var ErrNotFound = errors.New("no relevant information found")

var (
	// ErrExhausted means every source failed. It matches both ErrNotFound and
	// source.ErrExhausted.
	ErrExhausted error = &notFoundError{cause: source.ErrExhausted}
	// ErrUnreliable means the summary failed the reliability gate.
	ErrUnreliable = fmt.Errorf("%w: summary not supported by source", ErrNotFound)
)

type notFoundError struct {
	cause error
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.cause)
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *notFoundError) Unwrap() error { return e.cause }
