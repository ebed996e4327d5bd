package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtnitsch/litchar/models"
)

// SplitPath is <dataDir>/<split>.jsonl.
func SplitPath(dataDir string, split Split) string {
	return filepath.Join(dataDir, string(split)+".jsonl")
}

// ReadSamples loads every sample of a split file.
func ReadSamples(path string) ([]models.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open samples: %w", err)
	}
	defer f.Close()

	var samples []models.Sample
	sc := newScanner(f)
	for line := 1; sc.Scan(); line++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var s models.Sample
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("invalid sample on line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return samples, nil
}
