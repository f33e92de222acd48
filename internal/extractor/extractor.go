// Package extractor turns a blog post URL into a normalized metadata record
// by scraping static HTML meta tags with ordered fallbacks.
package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/blogmeta/internal/domain"
	"github.com/samvad-hq/blogmeta/pkg/httpclient"
)

const (
	// DefaultUserAgent mimics a desktop browser; several platforms reject bot-looking clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	defaultMaxBodyBytes = 2 << 20 // 2 MiB
)

// HeaderFunc returns the request headers to send for a target URL.
type HeaderFunc func(target *url.URL) map[string]string

// Extractor fetches blog pages and derives Metadata from them. It keeps no
// per-call state, so one Extractor may serve concurrent calls.
type Extractor struct {
	client  httpclient.Client
	headers HeaderFunc
	maxBody int
	now     func() time.Time
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithHeaders overrides how request headers are chosen per URL.
func WithHeaders(fn HeaderFunc) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.headers = fn
		}
	}
}

// WithMaxBodyBytes caps how much of a response body is parsed.
func WithMaxBodyBytes(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// WithClock sets the time source used for date fallbacks.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an extractor with the provided HTTP client (or a default one).
func New(client httpclient.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client:  client,
		headers: DefaultHeaders,
		maxBody: defaultMaxBodyBytes,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = httpclient.NewGuardedClient(httpclient.Options{
			Timeout:      15 * time.Second,
			MaxBodyBytes: int64(e.maxBody),
		})
	}
	return e
}

// DefaultHeaders returns browser-like request headers.
func DefaultHeaders(*url.URL) map[string]string {
	return map[string]string{
		"User-Agent":      DefaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// Extract fetches rawURL and returns its normalized metadata. It fails with
// ValidationError, FetchError or ParseError and never returns a partial record.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.Metadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := parseTarget(rawURL)
	if err != nil {
		return domain.Metadata{}, err
	}

	body, err := e.fetch(ctx, target)
	if err != nil {
		return domain.Metadata{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Metadata{}, &ParseError{URL: target.String(), Err: fmt.Errorf("parse html: %w", err)}
	}

	return e.buildMetadata(doc, target), nil
}

func parseTarget(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, &ValidationError{Reason: "url is required"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ValidationError{URL: rawURL, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ValidationError{URL: rawURL, Reason: "scheme must be http or https"}
	}
	if u.Hostname() == "" {
		return nil, &ValidationError{URL: rawURL, Reason: "host is required"}
	}
	return u, nil
}

func (e *Extractor) fetch(ctx context.Context, target *url.URL) ([]byte, error) {
	resp, err := e.client.Get(ctx, target.String(), e.headers(target))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return nil, &FetchError{URL: target.String(), Err: err}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &FetchError{URL: target.String(), Err: ctxErr}
	}

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &FetchError{
			URL:        target.String(),
			StatusCode: status,
			Err:        fmt.Errorf("unexpected status, body: %s", httpclient.Snippet(resp.Body())),
		}
	}

	if ct := resp.Header().Get("Content-Type"); !isMarkup(ct) {
		return nil, &ParseError{URL: target.String(), Err: fmt.Errorf("unsupported content type %q", ct)}
	}

	body := resp.Body()
	if len(body) > e.maxBody {
		body = body[:e.maxBody]
	}
	return body, nil
}

// isMarkup accepts missing, textual, HTML and XML content types.
func isMarkup(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") ||
		strings.Contains(mediaType, "html") ||
		strings.Contains(mediaType, "xml")
}

func (e *Extractor) buildMetadata(doc *goquery.Document, target *url.URL) domain.Metadata {
	md := domain.Metadata{
		Title:   firstOf(doc, titleChain),
		Excerpt: firstOf(doc, excerptChain),
		Image:   resolveReference(firstOf(doc, imageChain), target),
		Author:  cleanAuthor(firstOf(doc, authorChain)),
		Date:    normalizeDate(firstOf(doc, dateChain), e.now()),
		Tags:    collectTags(doc),
	}

	if md.Author == "" {
		md.Author = authorFromURL(target)
	}
	return md
}
