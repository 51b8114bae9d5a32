package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/answer"
	"github.com/hyperjump/gunggeum/internal/config"
	"github.com/hyperjump/gunggeum/internal/guard"
	"github.com/hyperjump/gunggeum/internal/keyword"
	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/internal/metrics"
	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/internal/ratelimit"
	"github.com/hyperjump/gunggeum/internal/search"
	"github.com/hyperjump/gunggeum/internal/searchlog"
	"github.com/hyperjump/gunggeum/internal/source"
	"github.com/hyperjump/gunggeum/internal/summary"
)

// Components holds the wired application.
type Components struct {
	Engine   *search.Engine
	Metrics  *metrics.Metrics
	Burst    *ratelimit.BurstLimiter
	Words    *guard.WordList
	Audit    *searchlog.Logs
	Location *time.Location
	Logger   *zap.Logger

	closers []func() error
}

// Close releases stores and log files.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// initializeComponents builds every collaborator from cfg. With audit set, the
// daily search/error logs are opened and error-level entries of the returned
// logger are also written to the error file.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, audit bool) (*Components, error) {
	loc, err := time.LoadLocation(cfg.Limits.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	c := &Components{Location: loc, Metrics: metrics.New()}
	built := false
	defer func() {
		if !built {
			c.Close()
		}
	}()

	c.Audit = searchlog.Nop()
	if audit && cfg.Logs.Dir != "" {
		logs, err := searchlog.Open(searchlog.Options{
			Dir:           cfg.Logs.Dir,
			Location:      loc,
			RetentionDays: cfg.Logs.RetentionDays,
		})
		if err != nil {
			logger.Warn("audit logs disabled", zap.String("dir", cfg.Logs.Dir), zap.Error(err))
		} else {
			c.Audit = logs
			c.closers = append(c.closers, logs.Close)
			logger = logs.Tee(logger)
		}
	}
	c.Logger = logger

	transformer, err := llm.NewTransformer(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	words, err := guard.LoadWordList(cfg.Guard.BannedWordsPath, logger)
	if err != nil {
		return nil, err
	}
	c.Words = words

	quotaStore, throttleStore, err := openStores(ctx, cfg.Limits, c)
	if err != nil {
		return nil, err
	}
	limitOpts := []ratelimit.Option{ratelimit.WithLogger(logger)}
	quota := ratelimit.NewQuota(quotaStore, cfg.Limits.DailyQuota, loc, limitOpts...)
	deduper := ratelimit.NewDeduper(throttleStore, cfg.Limits.DuplicateWindow, limitOpts...)
	c.Burst = ratelimit.NewBurstLimiter(cfg.Limits.BurstPerMinute)

	client := &http.Client{}
	chain := source.NewChain(
		source.FromConfig(cfg.Sources, transformer, client, logger),
		source.WithLogger(logger),
		source.WithAttemptHook(func(label models.SourceLabel, ok bool, elapsed time.Duration) {
			c.Metrics.ObserveSource(label.Slug(), ok, elapsed)
		}),
	)
	logger.Info("source chain ready", zap.Strings("sources", sourceSlugs(chain.Sources())))

	c.Engine = search.NewEngine(search.Deps{
		Guard:      guard.New(words),
		Quota:      quota,
		Deduper:    deduper,
		Normalizer: keyword.NewNormalizer(transformer, logger),
		Chain:      chain,
		Pipeline:   summary.NewPipeline(transformer, cfg.Pipeline.MaxSourceChars, cfg.Pipeline.MaxQuestions, logger),
		Answerer:   answer.NewAnswerer(transformer, cfg.Pipeline.MaxContextChars, logger),
		Metrics:    c.Metrics,
		Audit:      c.Audit,
		Logger:     logger,
	})
	built = true
	return c, nil
}

// openStores selects the quota and duplicate stores for cfg.Store.
func openStores(ctx context.Context, cfg config.LimitsConfig, c *Components) (ratelimit.QuotaStore, ratelimit.ThrottleStore, error) {
	switch cfg.Store {
	case "sqlite":
		store, err := ratelimit.NewSQLiteQuotaStore(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize quota store: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		day := time.Now().In(c.Location).Format(ratelimit.DayLayout)
		if _, err := store.Prune(ctx, day); err != nil {
			return nil, nil, fmt.Errorf("failed to prune quota store: %w", err)
		}
		return store, ratelimit.NewMemoryThrottleStore(5 * time.Minute), nil
	case "redis":
		client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		return ratelimit.NewRedisQuotaStore(client), ratelimit.NewRedisThrottleStore(client), nil
	default:
		return ratelimit.NewMemoryQuotaStore(), ratelimit.NewMemoryThrottleStore(5 * time.Minute), nil
	}
}

func sourceSlugs(labels []models.SourceLabel) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Slug()
	}
	return out
}
