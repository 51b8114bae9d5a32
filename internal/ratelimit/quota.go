package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

// Quota enforces a daily request ceiling per caller. The day rolls over at
// midnight in the configured location.
type Quota struct {
	store  QuotaStore
	limit  int
	loc    *time.Location
	clock  Clock
	logger *zap.Logger
}

// NewQuota creates a quota of limit requests per day. A nil loc means UTC.
func NewQuota(store QuotaStore, limit int, loc *time.Location, opts ...Option) *Quota {
	o := buildOptions(opts)
	if loc == nil {
		loc = time.UTC
	}
	return &Quota{store: store, limit: limit, loc: loc, clock: o.clock, logger: o.logger}
}

// Day returns the current calendar day key.
func (q *Quota) Day() string {
	return q.clock().In(q.loc).Format(DayLayout)
}

// Limit returns the daily ceiling.
func (q *Quota) Limit() int {
	return q.limit
}

// CheckAndConsume counts one request for callerID. When the ceiling is reached it
// returns a *LimitError and leaves the counter unchanged.
func (q *Quota) CheckAndConsume(ctx context.Context, callerID string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	day := q.Day()
	count, allowed, err := q.store.Consume(ctx, callerID, day, q.limit)
	if err != nil {
		q.logger.Warn("quota store failed, allowing request",
			zap.String("caller", callerID), zap.String("day", day), zap.Error(err))
		return Decision{Allowed: true, Limit: q.limit, FailedOpen: true}, nil
	}
	d := Decision{Allowed: allowed, Count: count, Limit: q.limit}
	if !allowed {
		return d, &LimitError{Kind: KindQuota, CallerID: callerID}
	}
	return d, nil
}
