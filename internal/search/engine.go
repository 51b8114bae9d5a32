// Package search runs a topic query through the abuse gate, limits, source chain,
// summarization and reliability gate, and answers follow-up questions.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/answer"
	"github.com/hyperjump/gunggeum/internal/guard"
	"github.com/hyperjump/gunggeum/internal/keyword"
	"github.com/hyperjump/gunggeum/internal/metrics"
	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/internal/ratelimit"
	"github.com/hyperjump/gunggeum/internal/reliability"
	"github.com/hyperjump/gunggeum/internal/searchlog"
	"github.com/hyperjump/gunggeum/internal/source"
	"github.com/hyperjump/gunggeum/internal/summary"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// Search results as reported to metrics.
const (
	ResultOK         = "ok"
	ResultRejected   = "rejected"
	ResultLimited    = "limited"
	ResultNotFound   = "not_found"
	ResultUnreliable = "unreliable"
	ResultError      = "error"
)

// Resolver acquires reference text for a term.
type Resolver interface {
	Resolve(ctx context.Context, term, rawQuery string) (models.SourceResult, error)
}

// Deps are the collaborators of an Engine. Quota and Deduper may be nil to
// disable the corresponding limit.
type Deps struct {
	Guard      *guard.Guard
	Quota      *ratelimit.Quota
	Deduper    *ratelimit.Deduper
	Normalizer *keyword.Normalizer
	Chain      Resolver
	Pipeline   *summary.Pipeline
	Answerer   *answer.Answerer
	Metrics    *metrics.Metrics
	Audit      *searchlog.Logs
	Logger     *zap.Logger
}

// Engine orchestrates searches and follow-up questions.
type Engine struct {
	guard      *guard.Guard
	quota      *ratelimit.Quota
	deduper    *ratelimit.Deduper
	normalizer *keyword.Normalizer
	chain      Resolver
	pipeline   *summary.Pipeline
	answerer   *answer.Answerer
	metrics    *metrics.Metrics
	audit      *searchlog.Logs
	logger     *zap.Logger
}

// NewEngine creates a search engine with injected dependencies.
func NewEngine(d Deps) *Engine {
	audit := d.Audit
	if audit == nil {
		audit = searchlog.Nop()
	}
	return &Engine{
		guard:      d.Guard,
		quota:      d.Quota,
		deduper:    d.Deduper,
		normalizer: d.Normalizer,
		chain:      d.Chain,
		pipeline:   d.Pipeline,
		answerer:   d.Answerer,
		metrics:    d.Metrics,
		audit:      audit,
		logger:     utils.OrNop(d.Logger),
	}
}

// Search explains req.RawQuery for a child. Errors are *guard.RejectError,
// *ratelimit.LimitError, errors matching ErrNotFound, or transformer failures
// (*llm.DependencyError).
func (e *Engine) Search(ctx context.Context, req models.SearchRequest) (*models.SearchOutcome, error) {
	startTime := time.Now()
	raw := strings.TrimSpace(req.RawQuery)
	caller := req.CallerID

	outcome, err := e.search(ctx, raw, caller)
	result := classify(err)
	e.metrics.ObserveSearch(result, time.Since(startTime))

	if err != nil {
		e.logger.Info("search failed",
			zap.String("caller", caller),
			zap.String("query", raw),
			zap.String("result", result),
			zap.Error(err))
		e.audit.Error.Error("search failed",
			zap.String("caller", caller),
			zap.String("query", raw),
			zap.String("result", result),
			zap.Error(err))
		return nil, err
	}

	e.logger.Info("search completed",
		zap.String("caller", caller),
		zap.String("query", raw),
		zap.String("term", outcome.Term),
		zap.String("source", outcome.Label.Slug()),
		zap.Duration("elapsed", time.Since(startTime)))
	e.audit.Search.Info("search",
		zap.String("caller", caller),
		zap.String("query", raw),
		zap.String("term", outcome.Term),
		zap.String("source", outcome.Source))
	return outcome, nil
}

func (e *Engine) search(ctx context.Context, raw, caller string) (*models.SearchOutcome, error) {
	if err := e.guard.Screen(raw); err != nil {
		var rej *guard.RejectError
		if errors.As(err, &rej) {
			e.metrics.ObserveRejection(string(rej.Reason))
		}
		return nil, err
	}

	if e.quota != nil {
		if _, err := e.quota.CheckAndConsume(ctx, caller); err != nil {
			e.observeLimit(err)
			return nil, err
		}
	}

	term := e.normalizer.Normalize(ctx, raw)

	res, err := e.chain.Resolve(ctx, term, raw)
	if err != nil {
		if errors.Is(err, source.ErrExhausted) {
			return nil, ErrExhausted
		}
		return nil, err
	}
	if !res.Succeeded {
		return nil, ErrExhausted
	}

	if e.deduper != nil {
		if _, err := e.deduper.CheckAndMark(ctx, caller, term); err != nil {
			e.observeLimit(err)
			return nil, err
		}
	}

	text, err := e.pipeline.Summarize(ctx, raw, res.Label, res.Text)
	if err != nil {
		return nil, err
	}
	questions := e.pipeline.SuggestQuestions(ctx, text)

	verdict := reliability.Evaluate(res.Text, text, term, res.Label == models.WebSearch)
	if !verdict.Reliable {
		e.logger.Debug("summary rejected by reliability gate",
			zap.String("term", term),
			zap.String("source", res.Label.Slug()),
			zap.Bool("evidence", verdict.Evidence),
			zap.Bool("hedging", verdict.Hedging))
		return nil, ErrUnreliable
	}

	return &models.SearchOutcome{
		Summary:      text,
		Questions:    questions,
		Source:       res.Label.String(),
		OriginalText: res.Text,
		Label:        res.Label,
		Term:         term,
	}, nil
}

// Answer replies to a follow-up question about a previously returned text.
func (e *Engine) Answer(ctx context.Context, req models.QuestionRequest) (*models.QuestionResponse, error) {
	out, err := e.answerer.Answer(ctx, req.Context, req.Question)
	if err != nil {
		result := ResultError
		if errors.Is(err, answer.ErrMissingInput) {
			result = ResultRejected
		}
		e.metrics.ObserveQuestion(result)
		e.audit.Error.Error("question failed",
			zap.String("question", utils.Truncate(req.Question, 80)),
			zap.Error(err))
		return nil, err
	}
	e.metrics.ObserveQuestion(ResultOK)
	return &models.QuestionResponse{Answer: out}, nil
}

func (e *Engine) observeLimit(err error) {
	var le *ratelimit.LimitError
	if errors.As(err, &le) {
		e.metrics.ObserveLimit(le.Kind.String())
	}
}

func classify(err error) string {
	var (
		rej *guard.RejectError
		le  *ratelimit.LimitError
	)
	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &rej):
		return ResultRejected
	case errors.As(err, &le):
		return ResultLimited
	case errors.Is(err, ErrUnreliable):
		return ResultUnreliable
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	default:
		return ResultError
	}
}
