// Package experiment manages experiment directories: a numbered directory
// per eval run holding the config snapshot and the prediction log, and the
// seed directory a fine-tune run writes its data into.
package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/storage"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFile      = "config.yaml"
	PredictionsFile = "preds.jsonl"
	dirPrefix       = "exp_"
)

// NextDir returns <saveDir>/exp_<n> where n is one more than the highest
// existing experiment number, starting at 1. The directory is not created.
func NextDir(saveDir string) (string, error) {
	entries, err := os.ReadDir(saveDir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to list experiments: %w", err)
	}

	highest := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dirPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), dirPrefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return filepath.Join(saveDir, fmt.Sprintf("%s%d", dirPrefix, highest+1)), nil
}

// TrainingDir is <save_experiment>/<model>/<experiment_name>/seed_<seed>.
func TrainingDir(p models.ExperimentParams, seed int) string {
	return filepath.Join(p.SaveExperiment, p.Model, p.ExperimentName, fmt.Sprintf("seed_%d", seed))
}

// SaveConfig writes the config document to <dir>/config.yaml as loaded.
func SaveConfig(dir string, cfg *models.ExperimentConfig) error {
	var doc any = cfg.Raw
	if cfg.Raw == nil {
		doc = cfg
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	s := &storage.Storage{}
	if err := s.SaveFile(filepath.Join(dir, ConfigFile), data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Prediction is one line of the prediction log.
type Prediction struct {
	Book           string   `json:"book"`
	Character      string   `json:"character"`
	SegmentOutputs []string `json:"segment_outputs,omitempty"`
	Output         string   `json:"output"`
}

// Experiment is an eval run directory.
type Experiment struct {
	Dir   string
	preds *storage.RecordLog
}

// Create makes the next experiment directory under saveDir, snapshots cfg
// into it and opens the prediction log.
func Create(saveDir string, cfg *models.ExperimentConfig) (*Experiment, error) {
	dir, err := NextDir(saveDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create experiment directory: %w", err)
	}
	if err := SaveConfig(dir, cfg); err != nil {
		return nil, err
	}
	preds, err := storage.OpenRecordLog(filepath.Join(dir, PredictionsFile))
	if err != nil {
		return nil, err
	}
	return &Experiment{Dir: dir, preds: preds}, nil
}

// Append writes p to the prediction log and flushes it.
func (e *Experiment) Append(p Prediction) error {
	return e.preds.Append(p)
}

// Count is the number of predictions written.
func (e *Experiment) Count() int { return e.preds.Count() }

func (e *Experiment) Close() error {
	return e.preds.Close()
}
