package source

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// AttemptHook observes each chain step.
type AttemptHook func(label models.SourceLabel, ok bool, elapsed time.Duration)

// Chain tries sources strictly in order and stops at the first success.
type Chain struct {
	sources []Source
	logger  *zap.Logger
	hook    AttemptHook
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger for step failures.
func WithLogger(l *zap.Logger) ChainOption {
	return func(c *Chain) { c.logger = utils.OrNop(l) }
}

// WithAttemptHook registers a callback invoked after every step.
func WithAttemptHook(h AttemptHook) ChainOption {
	return func(c *Chain) { c.hook = h }
}

// NewChain creates a chain over sources in priority order.
func NewChain(sources []Source, opts ...ChainOption) *Chain {
	c := &Chain{sources: sources, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sources returns the labels of the configured sources in order.
func (c *Chain) Sources() []models.SourceLabel {
	out := make([]models.SourceLabel, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Label()
	}
	return out
}

// Resolve returns the text of the first source that succeeds for term (or rawQuery,
// for web search). Each step runs under its own timeout; an error, timeout or empty
// text moves on to the next source. When every step fails it returns ErrExhausted.
func (c *Chain) Resolve(ctx context.Context, term, rawQuery string) (models.SourceResult, error) {
	q := Query{Term: strings.TrimSpace(term), Raw: strings.TrimSpace(rawQuery)}
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return models.SourceResult{}, err
		}
		text, err := c.attempt(ctx, src, q)
		if err != nil {
			c.logger.Warn("source failed",
				zap.String("source", src.Label().Slug()),
				zap.String("term", q.Term),
				zap.Error(err))
			continue
		}
		c.logger.Info("source succeeded",
			zap.String("source", src.Label().Slug()),
			zap.String("term", q.Term),
			zap.Int("chars", utils.RuneLen(text)))
		return models.Succeed(src.Label(), text), nil
	}
	return models.SourceResult{}, ErrExhausted
}

func (c *Chain) attempt(ctx context.Context, src Source, q Query) (string, error) {
	stepCtx := ctx
	if d := src.Timeout(); d > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	start := time.Now()
	text, err := src.Attempt(stepCtx, q)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrNoContent
	}
	if c.hook != nil {
		c.hook(src.Label(), err == nil, time.Since(start))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Debug("source timed out", zap.String("source", src.Label().Slug()), zap.Duration("timeout", src.Timeout()))
	}
	return text, err
}
