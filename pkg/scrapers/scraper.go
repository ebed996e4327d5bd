// Package scrapers extracts character records and summaries from literary
// study-guide websites.
//
// Every supported site is its own type implementing Scraper. The set is
// closed: New switches over models.Site, so adding a site means adding a
// constant and a case.
package scrapers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/fetcher"
	"github.com/dtnitsch/litchar/pkg/retry"
)

var (
	ErrUnsupportedKind = errors.New("data kind not supported by site")
	ErrUnknownSite     = errors.New("unknown site")
)

// Getter fetches a URL.
type Getter interface {
	Get(ctx context.Context, url string) (*fetcher.Page, error)
}

// SnapshotResolver replaces archive captures newer than a cutoff.
type SnapshotResolver interface {
	Resolve(ctx context.Context, page *fetcher.Page, requestedURL string) (*fetcher.Page, bool, error)
}

// Deps are the collaborators shared by all scrapers.
type Deps struct {
	Fetcher Getter

	// Snapshots is optional; without it archive pages are used as served.
	Snapshots SnapshotResolver

	// ItemRetry retries single character pages on sites that fetch one
	// page per character. The zero value tries once.
	ItemRetry retry.Policy

	// Readability enables a main-content extraction fallback for summaries.
	Readability bool

	// BaseURL overrides the site root Catalog starts from.
	BaseURL string

	// ShmoopCatalogPages is the number of Shmoop index pages to walk.
	ShmoopCatalogPages int

	Logger *slog.Logger
}

// Scraper extracts records from one site.
type Scraper interface {
	Site() models.Site
	Supports(kind models.Kind) bool

	// Characters returns description or analysis records for book.
	Characters(ctx context.Context, book models.Book, kind models.Kind) ([]models.Character, error)

	// Summary returns the plot summary for book, or "" if none was found.
	Summary(ctx context.Context, book models.Book) (string, error)

	// Catalog lists every study guide the site offers.
	Catalog(ctx context.Context) ([]models.Book, error)
}

// New returns the scraper for site.
func New(site models.Site, deps Deps) (Scraper, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	b := base{site: site, deps: deps, logger: deps.Logger.With("site", string(site))}

	switch site {
	case models.SiteSparkNotes:
		return &SparkNotes{base: b}, nil
	case models.SiteCliffsNotes:
		return &CliffsNotes{base: b}, nil
	case models.SiteLitCharts:
		return &LitCharts{base: b}, nil
	case models.SiteShmoop:
		pages := deps.ShmoopCatalogPages
		if pages <= 0 {
			pages = shmoopIndexPages
		}
		return &Shmoop{base: b, catalogPages: pages}, nil
	case models.SiteGradeSaver:
		return &GradeSaver{base: b}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSite, site)
}

var sitePattern = regexp.MustCompile(`www\.(\w+)\.com`)

// SiteFromURL finds the study-guide site a (possibly archived) URL points at.
func SiteFromURL(rawURL string) (models.Site, error) {
	m := sitePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("%w: no www.<site>.com in %q", ErrUnknownSite, rawURL)
	}
	for _, s := range models.Sites {
		if string(s) == m[1] {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSite, m[1])
}

// Result holds either character records or a summary.
type Result struct {
	Characters []models.Character
	Summary    string
}

// Scrape dispatches on kind.
func Scrape(ctx context.Context, s Scraper, book models.Book, kind models.Kind) (Result, error) {
	if !s.Supports(kind) {
		return Result{}, fmt.Errorf("%w: %s does not offer %s", ErrUnsupportedKind, s.Site(), kind)
	}
	if kind == models.KindSummary {
		summary, err := s.Summary(ctx, book)
		return Result{Summary: summary}, err
	}
	chars, err := s.Characters(ctx, book, kind)
	return Result{Characters: chars}, err
}
