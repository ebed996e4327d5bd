// Package scrape fetches a single study guide and prints its records
// without touching any dataset files.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dtnitsch/litchar/internal/common"
	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/retry"
	"github.com/dtnitsch/litchar/pkg/scrapers"
	"github.com/dtnitsch/litchar/pkg/snapshot"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Records turns a scrape result into the records collect would write.
func Records(book models.Book, site models.Site, kind models.Kind, res scrapers.Result) []any {
	if kind == models.KindSummary {
		if res.Summary == "" {
			return nil
		}
		return []any{models.Summary{
			BookID:  book.ID,
			Book:    book.Title,
			Author:  book.Author,
			Summary: res.Summary,
			Source:  site.Source(),
			URL:     book.URL,
		}}
	}
	records := make([]any, len(res.Characters))
	for i, ch := range res.Characters {
		records[i] = ch
	}
	return records
}

// Render writes records as JSON lines, or as one YAML document when
// format is "yaml".
func Render(w io.Writer, records []any, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("failed to encode records: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func ScrapeAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	kind, err := models.ParseKind(c.String("kind"))
	if err != nil {
		logger.Error("invalid kind", "error", err)
		os.Exit(2)
	}
	cutoff, err := common.ParseCutoff(c.String("snapshot-cutoff"))
	if err != nil {
		logger.Error("invalid snapshot cutoff", "error", err)
		os.Exit(2)
	}

	rawURL := common.SanitizeURL(c.String("url"))
	if !common.ValidURL(rawURL) {
		logger.Error("invalid url", "url", c.String("url"))
		os.Exit(2)
	}
	book := models.Book{
		ID:     c.Int64("id"),
		Title:  c.String("title"),
		Author: c.String("author"),
		URL:    rawURL,
	}

	site, err := scrapers.SiteFromURL(book.URL)
	if err != nil {
		logger.Error("unsupported url", "error", err)
		os.Exit(2)
	}

	f, err := common.NewFetcher(c, logger, nil)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(2)
	}

	s, err := scrapers.New(site, scrapers.Deps{
		Fetcher:     f,
		Snapshots:   snapshot.NewResolver(f, cutoff, logger),
		ItemRetry:   common.ItemPolicy(c, logger),
		Readability: c.Bool("readability-fallback"),
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to build scraper", "error", err)
		os.Exit(2)
	}

	res, err := retry.Do(c.Context, common.RetryPolicy(c, logger), func(ctx context.Context) (scrapers.Result, error) {
		return scrapers.Scrape(ctx, s, book, kind)
	})
	if err != nil {
		logger.Error("scrape failed", "error", err, "url", book.URL)
		os.Exit(1)
	}

	records := Records(book, site, kind, res)
	if err := Render(os.Stdout, records, c.String("format")); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(2)
	}
	logger.Info("Scrape complete", "site", string(site), "kind", string(kind), "records", len(records))
	return nil
}
