package collect

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/dtnitsch/litchar/internal/common"
	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/db"
	"github.com/dtnitsch/litchar/pkg/manifest"
	"github.com/dtnitsch/litchar/pkg/scrapers"
	"github.com/dtnitsch/litchar/pkg/snapshot"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/urfave/cli/v2"
)

func CollectAction(c *cli.Context) error {
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

	config := &models.CollectConfig{
		DataFile:       c.String("data-file"),
		SavePath:       c.String("save-path"),
		Kind:           kind,
		MaxAttempts:    c.Int("max-attempts"),
		ExpBase:        c.Float64("exp-base"),
		SnapshotCutoff: cutoff,
	}

	books, err := storage.ReadBooksFile(config.DataFile)
	if err != nil {
		logger.Error("failed to read data file", "error", err, "path", config.DataFile)
		os.Exit(2)
	}
	books, invalid := common.SanitizeBooks(books)
	for _, b := range invalid {
		logger.Warn("Skipping row with invalid URL", "book_id", b.ID, "title", b.Title, "url", b.URL)
	}

	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = filepath.Join(config.SavePath, db.DefaultDBName)
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

	records, err := storage.OpenRecordLog(storage.DataPath(config.SavePath, string(kind)))
	if err != nil {
		logger.Error("failed to open output", "error", err)
		os.Exit(2)
	}
	defer records.Close()

	ledger, err := storage.OpenLedger(storage.LedgerPath(config.SavePath, string(kind)))
	if err != nil {
		logger.Error("failed to open ledger", "error", err)
		os.Exit(2)
	}
	defer ledger.Close()

	runID, err := database.CreateRun("collect", string(kind), config.DataFile, len(books))
	if err != nil {
		logger.Error("failed to create run", "error", err)
		os.Exit(2)
	}

	policy := common.RetryPolicy(c, logger)
	policy.Retryable = Retryable

	resolver := snapshot.NewResolver(f, config.SnapshotCutoff, logger)
	logger.Info("Snapshot cutoff", "cutoff", resolver.Cutoff())

	collector := &Collector{
		Kind:   kind,
		Policy: policy,
		Deps: scrapers.Deps{
			Fetcher:     f,
			Snapshots:   resolver,
			ItemRetry:   common.ItemPolicy(c, logger),
			Readability: c.Bool("readability-fallback"),
		},
		Failures: database,
		RunID:    runID,
		Logger:   logger,
	}

	outcome, runErr := collector.Run(c.Context, books, records, ledger)

	stats := db.RunStats{
		Success: len(outcome.Results) - outcome.Failed(),
		Failed:  outcome.Failed(),
		Skipped: outcome.Skipped,
		Records: outcome.Records(),
	}
	if err := database.UpdateRunStats(runID, stats); err != nil {
		logger.Warn("failed to update run stats", "error", err, "run_id", runID)
	}

	manifestPath, err := manifest.GenerateSummary(config.SavePath, kind, outcome.Skipped, outcome.Results, &storage.Storage{})
	if err != nil {
		logger.Warn("failed to write manifest", "error", err)
	}

	logger.Info("Collect complete",
		"run_id", runID,
		"kind", string(kind),
		"success", stats.Success,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"invalid", len(invalid),
		"records", stats.Records,
		"manifest", manifestPath,
	)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Warn("Collect interrupted", "run_id", runID)
			os.Exit(1)
		}
		logger.Error("collect failed", "error", runErr)
		os.Exit(2)
	}
	if stats.Failed > 0 || len(invalid) > 0 {
		os.Exit(1)
	}
	return nil
}
