// Package ratelimit implements the per-caller daily quota, the duplicate-query
// suppressor and the per-minute burst limiter.
//
// Both advisory checks fail open: a store error allows the request and is logged.
package ratelimit

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clock returns the current time.
type Clock func() time.Time

// Kind identifies which limit was hit.
type Kind int

const (
	KindQuota Kind = iota
	KindDuplicate
	KindBurst
)

func (k Kind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindDuplicate:
		return "duplicate"
	case KindBurst:
		return "burst"
	default:
		return "unknown"
	}
}

// LimitError is returned when a caller exceeds a limit.
type LimitError struct {
	Kind     Kind
	CallerID string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limited (%s) for caller %s", e.Kind, e.CallerID)
}

// Decision describes the outcome of a limit check.
type Decision struct {
	Allowed bool
	// Count is the caller's usage for the current day after this check (quota only).
	Count int
	Limit int
	// FailedOpen is set when the store failed and the request was allowed anyway.
	FailedOpen bool
}

// QuotaStore atomically checks and increments a per-key daily counter.
// A stored counter whose day differs from day counts as zero.
type QuotaStore interface {
	Consume(ctx context.Context, key, day string, limit int) (count int, allowed bool, err error)
}

// ThrottleStore records the last time a key was seen.
// Mark reports duplicate when key was marked less than window before now; otherwise
// it stamps now.
type ThrottleStore interface {
	Mark(ctx context.Context, key string, now time.Time, window time.Duration) (duplicate bool, err error)
}

// Option configures Quota and Deduper.
type Option func(*options)

type options struct {
	clock  Clock
	logger *zap.Logger
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const stripes = 64

// stripedLock serializes operations on the same key without a global lock.
type stripedLock [stripes]sync.Mutex

func stripeIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % stripes)
}

func (s *stripedLock) lock(key string) *sync.Mutex {
	m := &s[stripeIndex(key)]
	m.Lock()
	return m
}
