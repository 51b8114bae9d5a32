// Package source resolves a topic to reference text through an ordered fallback
// chain: Korean Wikipedia, English Wikipedia, then web search.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperjump/gunggeum/internal/models"
)

// MaxBodyBytes bounds every response body read from a source.
const MaxBodyBytes = 1 << 20

const userAgent = "gunggeum/1.0 (kid-friendly topic explainer)"

var (
	// ErrNoContent means the source answered but had nothing usable for the query.
	ErrNoContent = errors.New("no content")
	// ErrExhausted means every source in the chain failed.
	ErrExhausted = errors.New("all sources exhausted")
)

// Query carries both forms of the user's request. Encyclopedic sources look up
// Term; web search uses the unreduced Raw query.
type Query struct {
	Term string
	Raw  string
}

// Source is one step of the fallback chain.
type Source interface {
	Label() models.SourceLabel
	Timeout() time.Duration
	Attempt(ctx context.Context, q Query) (string, error)
}

// StatusError reports a non-success HTTP status from a source.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// fetcher performs rate-limited HTTP requests with bounded body reads.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newFetcher(client *http.Client, perSecond float64) *fetcher {
	if client == nil {
		client = &http.Client{}
	}
	var lim *rate.Limiter
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return &fetcher{client: client, limiter: lim}
}

// do waits for the limiter within ctx, sends req and returns the bounded body
// of a 200 response.
func (f *fetcher) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, &StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
