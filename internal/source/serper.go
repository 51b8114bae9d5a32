package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/gunggeum/internal/models"
	"github.com/hyperjump/gunggeum/pkg/utils"
)

// SerperConfig configures the web search source.
type SerperConfig struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	RatePerSecond float64
	// Enricher, when set, appends the main text of the first result page.
	Enricher   *Enricher
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Serper queries the google.serper.dev search API with the raw query.
type Serper struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	enricher *Enricher
	fetch    *fetcher
	logger   *zap.Logger
}

// NewSerper creates a web search source.
func NewSerper(cfg SerperConfig) *Serper {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://google.serper.dev/search"
	}
	return &Serper{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		timeout:  cfg.Timeout,
		enricher: cfg.Enricher,
		fetch:    newFetcher(cfg.HTTPClient, cfg.RatePerSecond),
		logger:   utils.OrNop(cfg.Logger),
	}
}

// Label implements Source.
func (s *Serper) Label() models.SourceLabel { return models.WebSearch }

// Timeout implements Source.
func (s *Serper) Timeout() time.Duration { return s.timeout }

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Attempt implements Source. Success requires a non-empty snippet on the first
// organic result.
func (s *Serper) Attempt(ctx context.Context, q Query) (string, error) {
	if s.apiKey == "" {
		return "", errors.New("serper API key not configured")
	}
	query := q.Raw
	if query == "" {
		query = q.Term
	}
	payload, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.fetch.do(ctx, req)
	if err != nil {
		return "", err
	}
	var parsed serperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(parsed.Organic) == 0 {
		return "", fmt.Errorf("%w: no organic results", ErrNoContent)
	}
	first := parsed.Organic[0]
	snippet := strings.TrimSpace(first.Snippet)
	if snippet == "" {
		return "", fmt.Errorf("%w: empty snippet", ErrNoContent)
	}
	if s.enricher == nil || first.Link == "" {
		return snippet, nil
	}
	extra, err := s.enricher.Enrich(ctx, first.Link)
	if err != nil {
		s.logger.Debug("page enrichment failed", zap.String("link", first.Link), zap.Error(err))
		return snippet, nil
	}
	return snippet + "\n\n" + extra, nil
}
