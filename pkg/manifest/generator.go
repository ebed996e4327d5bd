package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
)

const topKeywords = 25

// RowResult is the outcome of scraping a single book row.
type RowResult struct {
	Book       models.Book
	Site       string
	Records    int
	Tokens     int
	Error      error
	ErrorType  string
	WordCounts map[string]int
}

// GenerateSummary writes <dir>/summary-<kind>-<date>.json and returns its
// path. skipped is the number of rows the ledger already covered.
func GenerateSummary(dir string, kind models.Kind, skipped int, results []RowResult, s *storage.Storage) (string, error) {
	now := time.Now()
	aggregate := make(map[string]int)

	manifest := SummaryManifest{
		GeneratedAt: now.Format(time.RFC3339),
		Kind:        string(kind),
		TotalRows:   len(results) + skipped,
		Skipped:     skipped,
	}

	for _, result := range results {
		summary := RowSummary{
			BookID: result.Book.ID,
			Title:  result.Book.Title,
			URL:    result.Book.URL,
			Site:   result.Site,
		}

		if result.Error != nil {
			manifest.Failed++
			summary.Status = "error"
			summary.ErrorType = result.ErrorType
			summary.ErrorMessage = result.Error.Error()
		} else {
			manifest.Successful++
			manifest.Records += result.Records
			summary.Status = "success"
			summary.Records = result.Records
			summary.EstimatedTokens = result.Tokens

			if result.WordCounts != nil {
				summary.TopKeywords = tokenizer.TopKeywords(result.WordCounts, topKeywords)
				tokenizer.Merge(aggregate, result.WordCounts)
			}
		}

		manifest.Results = append(manifest.Results, summary)
	}
	manifest.AggregateKeywords = tokenizer.TopKeywords(aggregate, topKeywords)

	manifestPath := filepath.Join(dir, fmt.Sprintf("summary-%s-%s.json", kind, now.Format("2006-01-02")))
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshalling manifest: %w", err)
	}

	if err := s.SaveFile(manifestPath, manifestData); err != nil {
		return "", fmt.Errorf("error saving manifest: %w", err)
	}

	return manifestPath, nil
}
