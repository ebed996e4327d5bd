package scrapers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/fetcher"
	"github.com/dtnitsch/litchar/pkg/retry"
	"github.com/dtnitsch/litchar/pkg/snapshot"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// errNoContent marks a character page whose expected markup is missing.
// Per-character retries treat it like any other failure.
var errNoContent = errors.New("expected content not found")

type base struct {
	site   models.Site
	deps   Deps
	logger *slog.Logger
}

func (b base) Site() models.Site { return b.site }

func (b base) unsupported(kind models.Kind) error {
	return fmt.Errorf("%w: %s does not offer %s", ErrUnsupportedKind, b.site, kind)
}

// root returns the site root used by Catalog, or the override from Deps.
func (b base) root(def string) string {
	if b.deps.BaseURL != "" {
		return b.deps.BaseURL
	}
	return def
}

// fetch gets url and parses it.
func (b base) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	page, err := b.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return page.Document()
}

// fetchPage gets url and returns both the page and its document.
func (b base) fetchPage(ctx context.Context, url string) (*fetcher.Page, *goquery.Document, error) {
	page, err := b.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	doc, err := page.Document()
	if err != nil {
		return nil, nil, err
	}
	return page, doc, nil
}

// fetchArchived gets url and swaps in an older capture when the archive
// served one newer than the snapshot cutoff.
func (b base) fetchArchived(ctx context.Context, url string) (*goquery.Document, error) {
	page, err := b.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if b.deps.Snapshots != nil {
		resolved, valid, err := b.deps.Snapshots.Resolve(ctx, page, url)
		if err != nil {
			return nil, err
		}
		if !valid {
			b.logger.Warn("Using snapshot newer than cutoff", "url", url, "served", resolved.FinalURL)
		}
		page = resolved
	}
	return page.Document()
}

// eachItem runs fn for every URL under the per-item retry policy. Items
// that still fail are logged and skipped. A bad snapshot timestamp is an
// input error and aborts the scrape.
func (b base) eachItem(ctx context.Context, urls []string, fn func(ctx context.Context, i int, url string) ([]models.Character, error)) ([]models.Character, error) {
	policy := b.deps.ItemRetry
	retryable := policy.Retryable
	policy.Retryable = func(err error) bool {
		if errors.Is(err, snapshot.ErrBadTimestamp) {
			return false
		}
		return retryable == nil || retryable(err)
	}

	var out []models.Character
	for i, u := range urls {
		recs, err := retry.Do(ctx, policy, func(ctx context.Context) ([]models.Character, error) {
			return fn(ctx, i, u)
		})
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			if errors.Is(err, snapshot.ErrBadTimestamp) {
				return out, err
			}
			b.logger.Warn("Skipping character page", "url", u, "error", err)
			continue
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (b base) character(book models.Book, name, text string, kind models.Kind, url string) models.Character {
	c := models.Character{
		BookID:    book.ID,
		Book:      book.Title,
		Author:    book.Author,
		Character: name,
		Source:    b.site.Source(),
		URL:       url,
	}
	if kind == models.KindAnalysis {
		c.Analysis = text
	} else {
		c.Description = text
	}
	return c
}

// readable extracts the main article of page with readability, one
// paragraph per block. It returns "" when nothing usable was found.
func (b base) readable(page *fetcher.Page) string {
	if !b.deps.Readability {
		return ""
	}
	parsedURL, err := url.Parse(page.FinalURL)
	if err != nil {
		return ""
	}
	rp := readability.NewParser()
	article, err := rp.Parse(strings.NewReader(string(page.Body)), parsedURL)
	if err != nil {
		b.logger.Debug("Readability found no article", "url", page.FinalURL, "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return ""
	}
	var paras []string
	doc.Find("p, h2, h3").Each(func(_ int, s *goquery.Selection) {
		if t := normalizeText(s.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n\n")
}

// normalizeText cleans up a string by trimming space and joining lines
// with single spaces.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

var spaceRun = regexp.MustCompile(`\s+`)

// collapseSpace replaces every whitespace run with one space.
func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// joinContents renders each child node of sel as whitespace-collapsed text,
// one line per non-empty child.
func joinContents(sel *goquery.Selection) string {
	var lines []string
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if t := collapseSpace(c.Text()); t != "" {
			lines = append(lines, t)
		}
	})
	return strings.Join(lines, "\n")
}

// joinURL resolves a relative path against base the way a browser does:
// everything after the last slash of base is replaced.
func joinURL(base, ref string) string {
	i := strings.LastIndex(base, "/")
	if i < 0 {
		return ref
	}
	return base[:i+1] + ref
}

func withSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

func withoutSlash(u string) string {
	return strings.TrimRight(u, "/")
}

// origin returns scheme://host of rawURL.
func origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// resolve turns an href found on pageURL into an absolute URL.
func resolve(pageURL, href string) string {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return origin(pageURL) + href
	}
	return joinURL(pageURL, href)
}

// nextInDocument returns the node after n in document order, descending
// into children first.
func nextInDocument(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}

// findNext returns the first element after the start of sel, in document
// order, matching selector. Descendants of sel are searched first.
func findNext(sel *goquery.Selection, selector string) *goquery.Selection {
	all := findAllNext(sel, selector)
	return all.First()
}

// findAllNext returns every element after the start of sel, in document
// order, matching selector.
func findAllNext(sel *goquery.Selection, selector string) *goquery.Selection {
	if sel.Length() == 0 {
		return sel
	}
	matcher := goquery.Single(selector)
	var nodes []*html.Node
	for n := nextInDocument(sel.Get(0)); n != nil; n = nextInDocument(n) {
		if n.Type == html.ElementNode && matcher.Match(n) {
			nodes = append(nodes, n)
		}
	}
	// Not("*") yields an empty selection on a fresh slice, so AddNodes
	// cannot write into sel.Nodes.
	return sel.Not("*").AddNodes(nodes...)
}

// dedupe drops repeated strings, keeping first occurrences in order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
