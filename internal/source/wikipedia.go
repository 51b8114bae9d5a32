package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// Wikipedia fetch modes.
const (
	ModeAPI  = "api"
	ModeHTML = "html"
)

// TitleTranslator maps a term to the article title to look up.
type TitleTranslator interface {
	Translate(ctx context.Context, term string) (string, error)
}

// WikipediaConfig configures one Wikipedia edition.
type WikipediaConfig struct {
	Label            models.SourceLabel
	BaseURL          string // e.g. https://ko.wikipedia.org
	Mode             string // api (default) or html
	Timeout          time.Duration
	MinExtractLength int
	RatePerSecond    float64
	Translator       TitleTranslator
	HTTPClient       *http.Client
	Logger           *zap.Logger
}

// Wikipedia looks a term up in one Wikipedia edition.
type Wikipedia struct {
	label      models.SourceLabel
	baseURL    string
	mode       string
	timeout    time.Duration
	minLen     int
	translator TitleTranslator
	fetch      *fetcher
	logger     *zap.Logger
}

// NewWikipedia creates a Wikipedia source.
func NewWikipedia(cfg WikipediaConfig) *Wikipedia {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAPI
	}
	return &Wikipedia{
		label:      cfg.Label,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		mode:       mode,
		timeout:    cfg.Timeout,
		minLen:     cfg.MinExtractLength,
		translator: cfg.Translator,
		fetch:      newFetcher(cfg.HTTPClient, cfg.RatePerSecond),
		logger:     utils.OrNop(cfg.Logger),
	}
}

// Label implements Source.
func (w *Wikipedia) Label() models.SourceLabel { return w.label }

// Timeout implements Source.
func (w *Wikipedia) Timeout() time.Duration { return w.timeout }

// Attempt implements Source. A missing page or an extract shorter than the
// minimum length is a failure.
func (w *Wikipedia) Attempt(ctx context.Context, q Query) (string, error) {
	title := w.title(ctx, q.Term)
	if title == "" {
		return "", ErrNoContent
	}
	var (
		text string
		err  error
	)
	if w.mode == ModeHTML {
		text, err = w.fetchHTML(ctx, title)
	} else {
		text, err = w.fetchExtract(ctx, title)
	}
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if utils.RuneLen(text) < w.minLen {
		return "", fmt.Errorf("%w: extract for %q shorter than %d characters", ErrNoContent, title, w.minLen)
	}
	return text, nil
}

func (w *Wikipedia) title(ctx context.Context, term string) string {
	if w.translator == nil {
		return term
	}
	translated, err := w.translator.Translate(ctx, term)
	if err != nil || strings.TrimSpace(translated) == "" {
		w.logger.Debug("title translation failed, using term", zap.String("term", term), zap.Error(err))
		return term
	}
	return strings.TrimSpace(translated)
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string          `json:"title"`
			Extract string          `json:"extract"`
			Missing json.RawMessage `json:"missing"`
			Invalid json.RawMessage `json:"invalid"`
		} `json:"pages"`
	} `json:"query"`
}

func (w *Wikipedia) fetchExtract(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("redirects", "1")
	params.Set("titles", title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/w/api.php?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	body, err := w.fetch.do(ctx, req)
	if err != nil {
		return "", err
	}
	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode extract response: %w", err)
	}
	for _, page := range parsed.Query.Pages {
		if page.Missing != nil || page.Invalid != nil {
			return "", fmt.Errorf("%w: page %q missing", ErrNoContent, title)
		}
		return page.Extract, nil
	}
	return "", fmt.Errorf("%w: no pages for %q", ErrNoContent, title)
}
