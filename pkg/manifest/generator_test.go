package manifest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/google/go-cmp/cmp"
)

func TestGenerateSummary(t *testing.T) {
	dir := t.TempDir()
	results := []RowResult{
		{
			Book:       models.Book{ID: 1, Title: "Macbeth", URL: "https://www.litcharts.com/lit/macbeth"},
			Site:       "litcharts",
			Records:    3,
			Tokens:     120,
			WordCounts: map[string]int{"macbeth": 4, "crown": 2},
		},
		{
			Book:      models.Book{ID: 2, Title: "Hamlet", URL: "https://www.gradesaver.com/hamlet"},
			Site:      "gradesaver",
			Error:     errors.New("retry attempts exhausted"),
			ErrorType: "exhausted",
		},
		{
			Book:       models.Book{ID: 3, Title: "Emma", URL: "https://www.sparknotes.com/lit/emma/"},
			Site:       "sparknotes",
			Records:    2,
			WordCounts: map[string]int{"emma": 5, "crown": 1},
		},
	}

	path, err := GenerateSummary(dir, models.KindDescription, 4, results, &storage.Storage{})
	if err != nil {
		t.Fatalf("GenerateSummary() error: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "summary-description-") {
		t.Errorf("manifest path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m SummaryManifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not JSON: %v", err)
	}

	if m.TotalRows != 7 || m.Skipped != 4 || m.Successful != 2 || m.Failed != 1 || m.Records != 5 {
		t.Errorf("counts = total %d skipped %d ok %d failed %d records %d", m.TotalRows, m.Skipped, m.Successful, m.Failed, m.Records)
	}
	if diff := cmp.Diff([]string{"emma:5", "macbeth:4", "crown:3"}, m.AggregateKeywords); diff != "" {
		t.Errorf("aggregate keywords mismatch (-want +got):\n%s", diff)
	}
	if got := m.Results[1]; got.Status != "error" || got.ErrorMessage != "retry attempts exhausted" || got.Records != 0 {
		t.Errorf("failed row summary = %+v", got)
	}
	if got := m.Results[0]; got.Status != "success" || got.EstimatedTokens != 120 {
		t.Errorf("successful row summary = %+v", got)
	}
}
