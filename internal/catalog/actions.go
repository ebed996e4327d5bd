// Package catalog lists the study guides a site offers as a book TSV that
// collect can consume.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtnitsch/litchar/internal/common"
	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/db"
	"github.com/dtnitsch/litchar/pkg/retry"
	"github.com/dtnitsch/litchar/pkg/scrapers"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/urfave/cli/v2"
)

// Build fetches the catalog and numbers the books from startID in the
// order the site lists them.
func Build(ctx context.Context, s scrapers.Scraper, p retry.Policy, startID int64) ([]models.Book, error) {
	books, err := retry.Do(ctx, p, s.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s catalog: %w", s.Site(), err)
	}
	for i := range books {
		books[i].ID = startID + int64(i)
	}
	return books, nil
}

// OutputPath is the default catalog file, <save>/<site>_books.tsv.
func OutputPath(saveDir string, site models.Site) string {
	return filepath.Join(saveDir, string(site)+"_books.tsv")
}

func CatalogAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	site := models.Site(c.String("site"))
	output := c.String("output")
	if output == "" {
		output = OutputPath(c.String("save-path"), site)
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = filepath.Join(c.String("save-path"), db.DefaultDBName)
	}
	database, err := db.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(2)
	}
	defer database.Close()

	f, err := common.NewFetcher(c, logger, database)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(2)
	}

	s, err := scrapers.New(site, scrapers.Deps{
		Fetcher:            f,
		BaseURL:            c.String("base-url"),
		ShmoopCatalogPages: c.Int("shmoop-pages"),
		Logger:             logger,
	})
	if err != nil {
		logger.Error("invalid site", "error", err)
		os.Exit(2)
	}

	books, err := Build(c.Context, s, common.RetryPolicy(c, logger), c.Int64("start-id"))
	if err != nil {
		logger.Error("catalog failed", "error", err)
		os.Exit(2)
	}

	var buf bytes.Buffer
	if err := storage.WriteBooks(&buf, books); err != nil {
		logger.Error("failed to encode catalog", "error", err)
		os.Exit(2)
	}
	store := &storage.Storage{}
	if err := store.SaveFile(output, buf.Bytes()); err != nil {
		logger.Error("failed to write catalog", "error", err, "path", output)
		os.Exit(2)
	}

	runID, err := database.CreateRun("catalog", "", string(site), len(books))
	if err == nil {
		err = database.UpdateRunStats(runID, db.RunStats{Success: len(books), Records: len(books)})
	}
	if err != nil {
		logger.Warn("failed to record run", "error", err)
	}

	logger.Info("Catalog complete", "site", string(site), "books", len(books), "path", output)
	return nil
}
