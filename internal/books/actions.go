// Package books downloads the Project Gutenberg texts of a book list.
package books

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dtnitsch/litchar/internal/common"
	"github.com/dtnitsch/litchar/pkg/gutenberg"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/urfave/cli/v2"
)

const (
	RawFile     = "book.txt"
	CleanedFile = "book_cleaned.txt"
)

// Save downloads book id and writes <save>/<id>/book.txt and
// book_cleaned.txt.
func Save(ctx context.Context, client *gutenberg.Client, store *storage.Storage, saveDir string, id int64) error {
	raw, err := client.Text(ctx, id)
	if err != nil {
		return err
	}
	dir := filepath.Join(saveDir, strconv.FormatInt(id, 10))
	if err := store.SaveFile(filepath.Join(dir, RawFile), raw); err != nil {
		return fmt.Errorf("failed to save book %d: %w", id, err)
	}
	if err := store.SaveFile(filepath.Join(dir, CleanedFile), gutenberg.StripHeaders(raw)); err != nil {
		return fmt.Errorf("failed to save book %d: %w", id, err)
	}
	return nil
}

// Downloaded reports whether book id already has a non-empty cleaned text
// under saveDir.
func Downloaded(store *storage.Storage, saveDir string, id int64) bool {
	stats, err := store.GetFileStats(filepath.Join(saveDir, strconv.FormatInt(id, 10), CleanedFile))
	return err == nil && stats.SizeBytes > 0
}

func BooksAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	f, err := os.Open(c.String("data-file"))
	if err != nil {
		logger.Error("failed to open data file", "error", err)
		os.Exit(2)
	}
	ids, err := storage.ReadBookIDs(f)
	f.Close()
	if err != nil {
		logger.Error("failed to read data file", "error", err)
		os.Exit(2)
	}

	fetch, err := common.NewFetcher(c, logger, nil)
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(2)
	}
	client := gutenberg.NewClient(fetch, c.String("mirror"), logger)
	store := &storage.Storage{}
	saveDir := c.String("save-path")

	failed := 0
	for _, id := range ids {
		if c.Context.Err() != nil {
			break
		}
		if !c.Bool("force") && Downloaded(store, saveDir, id) {
			logger.Debug("Book already downloaded", "book_id", id)
			continue
		}
		if err := Save(c.Context, client, store, saveDir, id); err != nil {
			logger.Error("Failed to download book", "book_id", id, "error", err)
			failed++
			continue
		}
		logger.Info("Downloaded book", "book_id", id)
	}

	logger.Info("Books complete", "total", len(ids), "failed", failed)
	if failed > 0 || c.Context.Err() != nil {
		os.Exit(1)
	}
	return nil
}
