package ratelimit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Deduper rejects the same caller repeating the same term within a window.
type Deduper struct {
	store  ThrottleStore
	window time.Duration
	clock  Clock
	logger *zap.Logger
}

// NewDeduper creates a duplicate suppressor with the given window.
func NewDeduper(store ThrottleStore, window time.Duration, opts ...Option) *Deduper {
	o := buildOptions(opts)
	return &Deduper{store: store, window: window, clock: o.clock, logger: o.logger}
}

// DedupeKey builds the throttle key for a caller and term. Terms compare
// case-insensitively after trimming.
func DedupeKey(callerID, term string) string {
	return callerID + "\x00" + strings.ToLower(strings.TrimSpace(term))
}

// CheckAndMark returns a *LimitError when (callerID, term) was marked within the
// window. Otherwise it stamps the current time.
func (d *Deduper) CheckAndMark(ctx context.Context, callerID, term string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	dup, err := d.store.Mark(ctx, DedupeKey(callerID, term), d.clock(), d.window)
	if err != nil {
		d.logger.Warn("throttle store failed, allowing request",
			zap.String("caller", callerID), zap.Error(err))
		return Decision{Allowed: true, FailedOpen: true}, nil
	}
	if dup {
		return Decision{}, &LimitError{Kind: KindDuplicate, CallerID: callerID}
	}
	return Decision{Allowed: true}, nil
}
