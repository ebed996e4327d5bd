package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/pkg/caching"
	"github.com/go-resty/resty/v2"
)

const DefaultUserAgent = "litchar/1.0 (+https://github.com/dtnitsch/litchar)"

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected status code")

// Page is a fetched document. FinalURL is the URL after redirects.
type Page struct {
	RequestURL string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Document parses the page body as HTML.
func (p *Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// AccessRecorder is notified of every network fetch.
type AccessRecorder interface {
	RecordFetch(rawURL string, statusCode int, errorType string, success bool) error
}

type Fetcher struct {
	client   *resty.Client
	cache    *caching.Cache
	recorder AccessRecorder
	logger   *slog.Logger
}

type Option func(*Fetcher)

// WithCache serves repeated requests from a response cache.
func WithCache(c *caching.Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithRecorder records network fetches, e.g. into the history database.
func WithRecorder(r AccessRecorder) Option {
	return func(f *Fetcher) { f.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.client.SetTimeout(d) }
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: resty.New().
			SetHeader("User-Agent", DefaultUserAgent).
			SetTimeout(60 * time.Second),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get fetches url and returns the page, following redirects.
func (f *Fetcher) Get(ctx context.Context, url string) (*Page, error) {
	if f.cache != nil {
		if e, ok := f.cache.Get(url); ok {
			f.logger.Debug("Cache hit", "url", url)
			return &Page{RequestURL: url, FinalURL: e.FinalURL, StatusCode: e.StatusCode, Body: e.Body}, nil
		}
	}

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		f.record(url, 0, "fetch_error", false)
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	finalURL := url
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}

	code := resp.StatusCode()
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		f.record(url, code, "status_error", false)
		return nil, fmt.Errorf("%w: %d for %s", ErrStatus, code, url)
	}
	f.record(url, code, "", true)

	page := &Page{RequestURL: url, FinalURL: finalURL, StatusCode: code, Body: resp.Body()}
	if f.cache != nil {
		entry := &caching.Entry{URL: url, FinalURL: finalURL, StatusCode: code, Body: page.Body, FetchedAt: time.Now()}
		if err := f.cache.Set(entry); err != nil {
			f.logger.Warn("Failed to cache response", "url", url, "error", err)
		}
	}
	return page, nil
}

// GetHtml fetches url and parses it as HTML.
func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	page, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return page.Document()
}

func (f *Fetcher) record(url string, code int, errorType string, success bool) {
	if f.recorder == nil {
		return
	}
	if err := f.recorder.RecordFetch(url, code, errorType, success); err != nil {
		f.logger.Warn("Failed to record access", "url", url, "error", err)
	}
}
