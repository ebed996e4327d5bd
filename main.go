package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dtnitsch/litchar/internal/books"
	"github.com/dtnitsch/litchar/internal/catalog"
	"github.com/dtnitsch/litchar/internal/collect"
	"github.com/dtnitsch/litchar/internal/dataset"
	"github.com/dtnitsch/litchar/internal/db"
	"github.com/dtnitsch/litchar/internal/eval"
	"github.com/dtnitsch/litchar/internal/finetune"
	"github.com/dtnitsch/litchar/internal/scrape"
	"github.com/dtnitsch/litchar/pkg/help"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var fetchFlags = []cli.Flag{
	&cli.StringFlag{Name: "cache-dir", Usage: "response cache directory (empty disables caching)"},
	&cli.DurationFlag{Name: "cache-ttl", Value: 0, Usage: "cache entry lifetime, 0 keeps entries forever"},
	&cli.DurationFlag{Name: "timeout", Value: 60 * time.Second, Usage: "per-request timeout"},
}

var retryFlags = []cli.Flag{
	&cli.IntFlag{Name: "max-attempts", Value: 3, Usage: "retries per book row after the first try"},
	&cli.Float64Flag{Name: "exp-base", Value: 3, Usage: "backoff base; the n-th retry waits exp-base^n seconds"},
	&cli.IntFlag{Name: "item-attempts", Value: 3, Usage: "tries per character page"},
	&cli.DurationFlag{Name: "item-wait", Value: 30 * time.Second, Usage: "wait between character page tries"},
}

var scrapeFlags = []cli.Flag{
	&cli.StringFlag{Name: "kind", Value: "description", Usage: "description, analysis or summary"},
	&cli.StringFlag{Name: "snapshot-cutoff", Value: "20240101000000", Usage: "archive captures from this instant on are replaced by older ones"},
	&cli.BoolFlag{Name: "readability-fallback", Usage: "extract summaries with readability when site markup is not recognised"},
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "litchar",
		Usage: "build literary character datasets from study-guide sites and evaluate models on them",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "only log errors"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug output"},
			&cli.StringFlag{Name: "db", Usage: "history database (default <save-path>/litchar.db)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "list every study guide a site offers as a book TSV",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{Name: "site", Required: true, Usage: "sparknotes, cliffsnotes, litcharts, shmoop or gradesaver"},
					&cli.StringFlag{Name: "save-path", Value: "data"},
					&cli.StringFlag{Name: "output", Usage: "output file (default <save-path>/<site>_books.tsv)"},
					&cli.StringFlag{Name: "base-url", Usage: "override the site root"},
					&cli.Int64Flag{Name: "start-id", Value: 1, Usage: "id of the first book"},
					&cli.IntFlag{Name: "shmoop-pages", Usage: "Shmoop index pages to walk"},
				}, fetchFlags, retryFlags),
				Action: catalog.CatalogAction,
			},
			{
				Name:  "collect",
				Usage: "scrape records for every row of a book TSV, resuming where the last run stopped",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{Name: "data-file", Required: true, Usage: "book TSV (Id/BookId, Title, Author, Url)"},
					&cli.StringFlag{Name: "save-path", Required: true},
				}, scrapeFlags, fetchFlags, retryFlags),
				Action: collect.CollectAction,
			},
			{
				Name:  "scrape",
				Usage: "scrape a single study guide and print its records",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{Name: "url", Required: true},
					&cli.Int64Flag{Name: "id"},
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "author"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "json or yaml"},
				}, scrapeFlags, fetchFlags, retryFlags),
				Action: scrape.ScrapeAction,
			},
			{
				Name:  "split",
				Usage: "route dataset records into train, val and test by book id",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dataset", Required: true, Usage: "JSONL records with an id field"},
					&cli.StringFlag{Name: "split-dir", Required: true, Usage: "directory holding train.tsv, val.tsv and test.tsv"},
					&cli.StringFlag{Name: "save-path", Required: true},
				},
				Action: dataset.SplitAction,
			},
			{
				Name:  "filter",
				Usage: "drop records whose text is too short or in another language",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dataset", Required: true},
					&cli.StringFlag{Name: "save-path", Required: true},
					&cli.StringFlag{Name: "field", Value: "description"},
					&cli.IntFlag{Name: "min-tokens", Value: 0, Usage: "keep records with more tokens than this"},
					&cli.StringFlag{Name: "tokenizer", Value: "words", Usage: "words or whitespace"},
					&cli.StringFlag{Name: "language", Usage: "ISO 639-1 code records must be written in"},
					&cli.StringFlag{Name: "candidates", Usage: "comma-separated languages to tell apart"},
				},
				Action: dataset.FilterAction,
			},
			{
				Name:  "books",
				Usage: "download Project Gutenberg texts for a book list",
				Flags: flags([]cli.Flag{
					&cli.StringFlag{Name: "data-file", Required: true, Usage: "TSV with an Id column of Gutenberg ids"},
					&cli.StringFlag{Name: "save-path", Required: true},
					&cli.StringFlag{Name: "mirror", Usage: "Gutenberg mirror root"},
					&cli.BoolFlag{Name: "force", Usage: "download books already on disk again"},
				}, fetchFlags),
				Action: books.BooksAction,
			},
			{
				Name:  "eval",
				Usage: "generate character descriptions for a split into a new experiment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"d"}, Required: true},
					&cli.StringFlag{Name: "tokenizer", Value: "words"},
				},
				Action: eval.EvalAction,
			},
			{
				Name:  "finetune",
				Usage: "write chat-format training data and the config for an external trainer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"d"}, Required: true},
					&cli.StringFlag{Name: "tokenizer", Value: "words"},
				},
				Action: finetune.FinetuneAction,
			},
			{
				Name:  "runs",
				Usage: "list collect and catalog runs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save-path", Value: "data"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: db.RunsAction,
			},
			{
				Name:      "failures",
				Usage:     "list book rows that exhausted their retries",
				ArgsUsage: "[run id]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save-path", Value: "data"},
					&cli.Int64Flag{Name: "run"},
					&cli.BoolFlag{Name: "latest", Usage: "only the given or latest run"},
					&cli.StringFlag{Name: "site"},
					&cli.StringFlag{Name: "kind"},
					&cli.IntFlag{Name: "limit"},
					&cli.StringFlag{Name: "format", Value: "table", Usage: "table or yaml"},
					&cli.StringFlag{Name: "export", Usage: "write the rows as a book TSV to rerun"},
				},
				Action: db.FailuresAction,
			},
			{
				Name:  "stats",
				Usage: "show fetch counts per domain, or the last fetch of one URL",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save-path", Value: "data"},
					&cli.StringFlag{Name: "url", Usage: "show the most recent fetch of this URL"},
				},
				Action: db.StatsAction,
			},
			{
				Name:  "quickstart",
				Usage: "print a command reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
