package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Run is one collect or catalog job.
type Run struct {
	RunID        int64
	CreatedAt    time.Time
	Command      string
	Kind         string
	InputFile    string
	RowCount     int
	SuccessCount int
	FailedCount  int
	SkippedCount int
	RecordCount  int
}

// RunStats are the counters a job updates when it finishes.
type RunStats struct {
	Success int
	Failed  int
	Skipped int
	Records int
}

// Failure is a book row whose scrape gave up.
type Failure struct {
	FailureID int64     `yaml:"-"`
	RunID     int64     `yaml:"run_id"`
	BookID    int64     `yaml:"book_id"`
	Title     string    `yaml:"title"`
	Author    string    `yaml:"author"`
	URL       string    `yaml:"url"`
	Site      string    `yaml:"site"`
	Kind      string    `yaml:"kind"`
	Attempts  int       `yaml:"attempts"`
	Error     string    `yaml:"error"`
	CreatedAt time.Time `yaml:"created_at"`
}

// FailureFilter narrows ListFailures. Zero fields match everything.
type FailureFilter struct {
	RunID int64
	Site  string
	Kind  string
	Limit int
}

// CreateRun inserts a run record and returns its id.
func (db *DB) CreateRun(command, kind, inputFile string, rowCount int) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (command, kind, input_file, row_count)
		VALUES (?, ?, ?, ?)
	`, command, NewNullString(kind), NewNullString(inputFile), rowCount)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// UpdateRunStats stores the final counters for a run.
func (db *DB) UpdateRunStats(runID int64, stats RunStats) error {
	_, err := db.Exec(`
		UPDATE runs
		SET success_count = ?, failed_count = ?, skipped_count = ?, record_count = ?
		WHERE run_id = ?
	`, stats.Success, stats.Failed, stats.Skipped, stats.Records, runID)
	if err != nil {
		return fmt.Errorf("failed to update run stats: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at, command, COALESCE(kind, ''), COALESCE(input_file, ''),
	row_count, success_count, failed_count, skipped_count, record_count`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	err := row.Scan(&r.RunID, &r.CreatedAt, &r.Command, &r.Kind, &r.InputFile,
		&r.RowCount, &r.SuccessCount, &r.FailedCount, &r.SkippedCount, &r.RecordCount)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRun retrieves a run by its ID.
func (db *DB) GetRun(runID int64) (*Run, error) {
	r, err := scanRun(db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs, most recent first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY run_id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// RecordFailure stores a failed book row for a run.
func (db *DB) RecordFailure(f Failure) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO scrape_failures (run_id, book_id, title, author, url, site, kind, attempts, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.RunID, f.BookID, f.Title, f.Author, f.URL, f.Site, f.Kind, f.Attempts, f.Error)
	if err != nil {
		return 0, fmt.Errorf("failed to record failure: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get failure ID: %w", err)
	}
	return id, nil
}

// ListFailures returns failures matching filter, oldest first.
func (db *DB) ListFailures(filter FailureFilter) ([]Failure, error) {
	var conditions []string
	var args []any

	if filter.RunID > 0 {
		conditions = append(conditions, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Site != "" {
		conditions = append(conditions, "site = ?")
		args = append(args, filter.Site)
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind)
	}

	query := `
		SELECT failure_id, run_id, COALESCE(book_id, 0), COALESCE(title, ''), COALESCE(author, ''),
		       url, COALESCE(site, ''), kind, attempts, COALESCE(error_message, ''), created_at
		FROM scrape_failures`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY failure_id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.FailureID, &f.RunID, &f.BookID, &f.Title, &f.Author,
			&f.URL, &f.Site, &f.Kind, &f.Attempts, &f.Error, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
