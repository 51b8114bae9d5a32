package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/markusmobius/go-trafilatura"

	"github.com/hyperjump/gunggeum/pkg/utils"
)

// DefaultEnrichRunes bounds the page text appended to a search snippet.
const DefaultEnrichRunes = 1000

const maxRedirects = 5

// ErrForbiddenAddress is returned for URLs and connections that target a
// non-public address.
var ErrForbiddenAddress = errors.New("address not allowed")

// Enricher downloads a search result page and extracts its main text.
type Enricher struct {
	fetch    *fetcher
	maxRunes int
	validate func(rawURL string) error
	checkIP  func(ip net.IP) error
}

// NewEnricher creates an enricher that keeps at most maxRunes characters of page text.
// Requests go through a copy of client whose redirects are re-validated and whose
// connections are refused when the resolved address is not public. A transport
// other than *http.Transport is replaced.
func NewEnricher(client *http.Client, maxRunes int) *Enricher {
	if maxRunes <= 0 {
		maxRunes = DefaultEnrichRunes
	}
	e := &Enricher{maxRunes: maxRunes, validate: ValidatePublicURL, checkIP: checkPublicIP}
	e.fetch = newFetcher(e.guardedClient(client), 0)
	return e
}

func (e *Enricher) guardedClient(base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	var transport *http.Transport
	if t, ok := c.Transport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = http.DefaultTransport.(*http.Transport).Clone()
	}
	// The dial check must see the destination, not a proxy.
	transport.Proxy = nil
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   e.controlDial,
	}
	transport.DialContext = dialer.DialContext
	c.Transport = transport
	c.CheckRedirect = e.checkRedirect
	return c
}

func (e *Enricher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if err := e.validate(req.URL.String()); err != nil {
		return fmt.Errorf("redirect to %s: %w", req.URL.Redacted(), err)
	}
	return nil
}

// controlDial runs after name resolution, so it sees the address actually dialed.
func (e *Enricher) controlDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: unresolved address %q", ErrForbiddenAddress, host)
	}
	return e.checkIP(ip)
}

// Enrich returns the main text of the page at rawURL.
func (e *Enricher) Enrich(ctx context.Context, rawURL string) (string, error) {
	if err := e.validate(rawURL); err != nil {
		return "", err
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	body, err := e.fetch.do(ctx, req)
	if err != nil {
		return "", err
	}
	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{OriginalURL: parsed})
	if err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return "", fmt.Errorf("%w: no main text on page", ErrNoContent)
	}
	text := strings.Join(strings.Fields(result.ContentText), " ")
	return utils.Prefix(text, e.maxRunes), nil
}

var blockedHosts = map[string]bool{
	"localhost":                true,
	"localhost.localdomain":    true,
	"metadata.google.internal": true,
}

// ValidatePublicURL rejects URLs that are not http(s) or that name a loopback,
// private, link-local or unspecified address. Hostnames are not resolved here;
// the enricher checks the resolved address when it connects.
func ValidatePublicURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return errors.New("URL has no host")
	}
	if blockedHosts[host] || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".internal") {
		return fmt.Errorf("%w: host %q", ErrForbiddenAddress, host)
	}
	if ip := net.ParseIP(host); ip != nil {
		return checkPublicIP(ip)
	}
	return nil
}

func checkPublicIP(ip net.IP) error {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ip)
	}
	return nil
}
