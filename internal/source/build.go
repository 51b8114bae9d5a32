package source

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/config"
	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/internal/models"
)

// FromConfig builds the enabled sources in chain order. t is used for English
// title translation when enabled.
func FromConfig(cfg config.SourcesConfig, t llm.Transformer, client *http.Client, logger *zap.Logger) []Source {
	var sources []Source
	if cfg.KoWiki.EnabledOrDefault() {
		sources = append(sources, NewWikipedia(WikipediaConfig{
			Label:            models.KoWiki,
			BaseURL:          cfg.KoWiki.BaseURL,
			Mode:             cfg.KoWiki.Mode,
			Timeout:          cfg.KoWiki.Timeout,
			MinExtractLength: cfg.MinExtractLength,
			RatePerSecond:    cfg.KoWiki.RatePerSecond,
			HTTPClient:       client,
			Logger:           logger,
		}))
	}
	if cfg.EnWiki.EnabledOrDefault() {
		wc := WikipediaConfig{
			Label:            models.EnWiki,
			BaseURL:          cfg.EnWiki.BaseURL,
			Mode:             cfg.EnWiki.Mode,
			Timeout:          cfg.EnWiki.Timeout,
			MinExtractLength: cfg.MinExtractLength,
			RatePerSecond:    cfg.EnWiki.RatePerSecond,
			HTTPClient:       client,
			Logger:           logger,
		}
		if cfg.EnWiki.TranslateTitle && t != nil {
			wc.Translator = NewLLMTitleTranslator(t)
		}
		sources = append(sources, NewWikipedia(wc))
	}
	if cfg.Serper.EnabledOrDefault() {
		sc := SerperConfig{
			Endpoint:      cfg.Serper.Endpoint,
			APIKey:        cfg.Serper.APIKey,
			Timeout:       cfg.Serper.Timeout,
			RatePerSecond: cfg.Serper.RatePerSecond,
			HTTPClient:    client,
			Logger:        logger,
		}
		if cfg.Serper.EnrichPages {
			sc.Enricher = NewEnricher(client, DefaultEnrichRunes)
		}
		sources = append(sources, NewSerper(sc))
	}
	return sources
}
