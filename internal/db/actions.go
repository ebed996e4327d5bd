package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dtnitsch/litchar/models"
	dbpkg "github.com/dtnitsch/litchar/pkg/db"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func RunsAction(c *cli.Context) error {
	database, err := OpenFromFlags(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	PrintRuns(os.Stdout, runs)
	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'litchar failures --run <id>' to see a run's failed rows\n")
	return nil
}

// PrintRuns writes runs as a fixed-width table.
func PrintRuns(w io.Writer, runs []dbpkg.Run) {
	fmt.Fprintf(w, "%-6s %-20s %-8s %-12s %-6s %-8s %-7s %-8s %-8s %s\n",
		"ID", "Created", "Command", "Kind", "Rows", "Success", "Failed", "Skipped", "Records", "Input")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, r := range runs {
		fmt.Fprintf(w, "%-6d %-20s %-8s %-12s %-6d %-8d %-7d %-8d %-8d %s\n",
			r.RunID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Command,
			r.Kind,
			r.RowCount,
			r.SuccessCount,
			r.FailedCount,
			r.SkippedCount,
			r.RecordCount,
			r.InputFile,
		)
	}
}

func FailuresAction(c *cli.Context) error {
	database, err := OpenFromFlags(c)
	if err != nil {
		return err
	}
	defer database.Close()

	filter := dbpkg.FailureFilter{
		RunID: c.Int64("run"),
		Site:  c.String("site"),
		Kind:  c.String("kind"),
		Limit: c.Int("limit"),
	}
	if c.Bool("latest") {
		filter.RunID, err = GetRunIDOrLatest(c, database)
		if err != nil {
			return err
		}
	}

	failures, err := database.ListFailures(filter)
	if err != nil {
		return fmt.Errorf("failed to list failures: %w", err)
	}

	if path := c.String("export"); path != "" {
		if err := ExportFailures(path, failures); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(failures), path)
		return nil
	}

	if len(failures) == 0 {
		fmt.Println("No failures found")
		return nil
	}

	switch c.String("format") {
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(failures); err != nil {
			return fmt.Errorf("failed to encode failures: %w", err)
		}
		return enc.Close()
	default:
		PrintFailures(os.Stdout, failures)
		fmt.Printf("\nTotal: %d failures\n", len(failures))
		return nil
	}
}

// PrintFailures writes failures as a fixed-width table.
func PrintFailures(w io.Writer, failures []dbpkg.Failure) {
	fmt.Fprintf(w, "%-6s %-8s %-12s %-12s %-30s %s\n", "Run", "Book", "Site", "Kind", "Title", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, f := range failures {
		fmt.Fprintf(w, "%-6d %-8d %-12s %-12s %-30s %s\n", f.RunID, f.BookID, f.Site, f.Kind, truncate(f.Title, 30), f.Error)
	}
}

// ExportFailures writes the failed rows as a book list collect can rerun.
// A book that failed in several runs is listed once.
func ExportFailures(path string, failures []dbpkg.Failure) error {
	seen := make(map[string]struct{})
	var books []models.Book
	for _, f := range failures {
		key := fmt.Sprintf("%d\t%s", f.BookID, f.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		books = append(books, models.Book{ID: f.BookID, Title: f.Title, Author: f.Author, URL: f.URL})
	}

	var sb strings.Builder
	if err := storage.WriteBooks(&sb, books); err != nil {
		return fmt.Errorf("failed to encode failures: %w", err)
	}
	store := &storage.Storage{}
	if err := store.SaveFile(path, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to write failures: %w", err)
	}
	return nil
}

func StatsAction(c *cli.Context) error {
	database, err := OpenFromFlags(c)
	if err != nil {
		return err
	}
	defer database.Close()

	if rawURL := c.String("url"); rawURL != "" {
		record, err := LastAccess(database, rawURL)
		if err != nil {
			return err
		}
		PrintLastAccess(os.Stdout, rawURL, record)
		return nil
	}

	stats, err := database.AccessStats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No fetches recorded")
		return nil
	}

	fmt.Printf("%-40s %-10s %s\n", "Domain", "Fetches", "Failed")
	fmt.Println(strings.Repeat("-", 60))
	for _, s := range stats {
		fmt.Printf("%-40s %-10d %d\n", s.Domain, s.Accesses, s.Failures)
	}
	return nil
}

// LastAccess returns the most recent fetch of rawURL, or nil when it was
// never fetched.
func LastAccess(database *dbpkg.DB, rawURL string) (*dbpkg.AccessRecord, error) {
	urlID, err := database.GetURLID(rawURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return database.GetLastAccess(urlID)
}

// PrintLastAccess writes one line describing record.
func PrintLastAccess(w io.Writer, rawURL string, record *dbpkg.AccessRecord) {
	if record == nil {
		fmt.Fprintf(w, "%s: never fetched\n", rawURL)
		return
	}
	status := "ok"
	if !record.Success {
		status = "failed"
		if record.ErrorType != "" {
			status += " (" + record.ErrorType + ")"
		}
	}
	fmt.Fprintf(w, "%s: %s, HTTP %d at %s\n", rawURL, status, record.StatusCode, record.AccessedAt.Format("2006-01-02 15:04:05"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
