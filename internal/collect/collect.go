// Package collect runs resumable scrape jobs over a TSV of books.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/db"
	"github.com/dtnitsch/litchar/pkg/manifest"
	"github.com/dtnitsch/litchar/pkg/retry"
	"github.com/dtnitsch/litchar/pkg/scrapers"
	"github.com/dtnitsch/litchar/pkg/snapshot"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
)

// FailureStore keeps rows that could not be scraped.
type FailureStore interface {
	RecordFailure(f db.Failure) (int64, error)
}

// Collector scrapes one kind of record for a list of books, one row at a
// time. Every row is written and flushed before the next one starts.
type Collector struct {
	Kind   models.Kind
	Policy retry.Policy
	Deps   scrapers.Deps

	// NewScraper defaults to scrapers.New.
	NewScraper func(site models.Site, deps scrapers.Deps) (scrapers.Scraper, error)

	// Failures and RunID are optional.
	Failures FailureStore
	RunID    int64

	Tokenizer tokenizer.Tokenizer
	Logger    *slog.Logger
}

// Outcome is what a run did with its rows.
type Outcome struct {
	Results []manifest.RowResult
	Skipped int
}

// Failed counts rows that ended in an error.
func (o Outcome) Failed() int {
	n := 0
	for _, r := range o.Results {
		if r.Error != nil {
			n++
		}
	}
	return n
}

// Records counts records written.
func (o Outcome) Records() int {
	n := 0
	for _, r := range o.Results {
		n += r.Records
	}
	return n
}

// Run processes books in order. Rows the ledger already holds are skipped.
// It stops early only on cancellation or when output cannot be written.
func (c *Collector) Run(ctx context.Context, books []models.Book, out *storage.RecordLog, ledger *storage.Ledger) (Outcome, error) {
	var outcome Outcome
	logger := c.logger()

	for i, book := range books {
		if ledger.Done(book) {
			outcome.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		logger.Info("Scraping", "row", i, "book_id", book.ID, "title", book.Title, "url", book.URL)

		site, res, attempts, err := c.scrape(ctx, book)
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}

		result := manifest.RowResult{Book: book, Site: string(site)}
		if err != nil {
			result.Error = err
			result.ErrorType = errorType(err)
			logger.Error("Failed to scrape", "book_id", book.ID, "title", book.Title, "url", book.URL, "error", err)
			c.recordFailure(book, site, attempts, err)
			outcome.Results = append(outcome.Results, result)
			continue
		}

		n, err := c.write(out, book, site, res)
		if err != nil {
			return outcome, err
		}
		if err := ledger.Add(book); err != nil {
			return outcome, fmt.Errorf("failed to update ledger: %w", err)
		}

		result.Records = n
		result.Tokens, result.WordCounts = c.measure(res)
		outcome.Results = append(outcome.Results, result)
	}

	return outcome, nil
}

func (c *Collector) scrape(ctx context.Context, book models.Book) (models.Site, scrapers.Result, int, error) {
	site, err := scrapers.SiteFromURL(book.URL)
	if err != nil {
		return "", scrapers.Result{}, 0, err
	}

	newScraper := c.NewScraper
	if newScraper == nil {
		newScraper = scrapers.New
	}
	deps := c.Deps
	deps.Logger = c.logger()
	s, err := newScraper(site, deps)
	if err != nil {
		return site, scrapers.Result{}, 0, err
	}
	if !s.Supports(c.Kind) {
		return site, scrapers.Result{}, 0, fmt.Errorf("%w: %s does not offer %s", scrapers.ErrUnsupportedKind, site, c.Kind)
	}

	res, err := retry.Do(ctx, c.Policy, func(ctx context.Context) (scrapers.Result, error) {
		return scrapers.Scrape(ctx, s, book, c.Kind)
	})
	return site, res, c.Policy.Attempts(), err
}

// write appends the row's records and returns how many were written.
// An empty summary writes nothing.
func (c *Collector) write(out *storage.RecordLog, book models.Book, site models.Site, res scrapers.Result) (int, error) {
	if c.Kind == models.KindSummary {
		if res.Summary == "" {
			return 0, nil
		}
		rec := models.Summary{
			BookID:  book.ID,
			Book:    book.Title,
			Author:  book.Author,
			Summary: res.Summary,
			Source:  site.Source(),
			URL:     book.URL,
		}
		if err := out.Append(rec); err != nil {
			return 0, err
		}
		return 1, nil
	}

	for _, ch := range res.Characters {
		if err := out.Append(ch); err != nil {
			return 0, err
		}
	}
	return len(res.Characters), nil
}

func (c *Collector) measure(res scrapers.Result) (int, map[string]int) {
	tok := c.Tokenizer
	if tok == nil {
		tok = tokenizer.Words{}
	}

	texts := []string{res.Summary}
	for _, ch := range res.Characters {
		texts = append(texts, ch.Text())
	}

	tokens := 0
	counts := make(map[string]int)
	for _, t := range texts {
		if t == "" {
			continue
		}
		tokens += tok.Count(t)
		tokenizer.Merge(counts, tokenizer.Frequencies(tok, t))
	}
	return tokens, counts
}

func (c *Collector) recordFailure(book models.Book, site models.Site, attempts int, err error) {
	if c.Failures == nil {
		return
	}
	_, ferr := c.Failures.RecordFailure(db.Failure{
		RunID:    c.RunID,
		BookID:   book.ID,
		Title:    book.Title,
		Author:   book.Author,
		URL:      book.URL,
		Site:     string(site),
		Kind:     string(c.Kind),
		Attempts: attempts,
		Error:    err.Error(),
	})
	if ferr != nil {
		c.logger().Warn("Failed to record failure", "book_id", book.ID, "error", ferr)
	}
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Retryable reports whether a row error may clear on another attempt.
// Input errors fail the row at once.
func Retryable(err error) bool {
	return !errors.Is(err, scrapers.ErrUnsupportedKind) && !errors.Is(err, snapshot.ErrBadTimestamp)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, snapshot.ErrBadTimestamp):
		return "bad_timestamp"
	case errors.Is(err, scrapers.ErrUnknownSite):
		return "unknown_site"
	case errors.Is(err, scrapers.ErrUnsupportedKind):
		return "unsupported_kind"
	case errors.Is(err, retry.ErrExhausted):
		return "exhausted"
	default:
		return "error"
	}
}
