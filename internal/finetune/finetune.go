// Package finetune writes chat-format training data for an external
// trainer into a seed directory alongside the config that produced it.
package finetune

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/chunker"
	"github.com/dtnitsch/litchar/pkg/dataset"
	"github.com/dtnitsch/litchar/pkg/experiment"
	"github.com/dtnitsch/litchar/pkg/prompt"
	"github.com/dtnitsch/litchar/pkg/storage"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is one supervised chat example.
type Example struct {
	Messages []Message `json:"messages"`
}

// BuildExample formats the prompt for s, truncates it to truncateLength
// tokens and pairs it with the reference text.
func BuildExample(template string, s models.Sample, target string, tok tokenizer.Tokenizer, truncateLength int) Example {
	p := prompt.Format(template, map[string]string{
		"character": s.Character,
		"context":   s.Input,
	})
	return Example{Messages: []Message{
		{Role: "user", Content: chunker.Truncate(p, tok, truncateLength)},
		{Role: "assistant", Content: target},
	}}
}

// Counts is per split: examples written and samples skipped for lacking
// a reference text.
type Counts struct {
	Written map[dataset.Split]int
	Skipped map[dataset.Split]int
}

// Prepare writes <seed dir>/train.jsonl, val.jsonl and config.yaml and
// returns the seed directory.
func Prepare(cfg *models.ExperimentConfig, tok tokenizer.Tokenizer, logger *slog.Logger) (string, Counts, error) {
	counts := Counts{Written: map[dataset.Split]int{}, Skipped: map[dataset.Split]int{}}
	if err := cfg.ValidateTrain(); err != nil {
		return "", counts, err
	}
	if tok == nil {
		tok = tokenizer.Words{}
	}

	template, err := prompt.LoadFile(cfg.DataParams.PromptPath)
	if err != nil {
		return "", counts, err
	}

	train := cfg.TrainParams
	task := string(models.KindDescription)
	if cfg.EvalParams != nil && cfg.EvalParams.Task != "" {
		task = cfg.EvalParams.Task
	}

	dir := experiment.TrainingDir(cfg.ExperimentParams, train.Seed)
	if err := experiment.SaveConfig(dir, cfg); err != nil {
		return "", counts, err
	}

	for _, split := range []dataset.Split{dataset.Train, dataset.Val} {
		samples, err := dataset.ReadSamples(dataset.SplitPath(cfg.DataParams.DataPath, split))
		if err != nil {
			return "", counts, fmt.Errorf("failed to read %s split: %w", split, err)
		}

		out, err := storage.OpenRecordLog(filepath.Join(dir, string(split)+".jsonl"))
		if err != nil {
			return "", counts, err
		}
		for _, s := range samples {
			target := s.Target(task)
			if target == "" {
				counts.Skipped[split]++
				continue
			}
			if err := out.Append(BuildExample(template, s, target, tok, train.TruncateLength)); err != nil {
				out.Close()
				return "", counts, err
			}
			counts.Written[split]++
		}
		if err := out.Close(); err != nil {
			return "", counts, fmt.Errorf("failed to close %s output: %w", split, err)
		}
		logger.Info("Prepared split", "split", string(split), "examples", counts.Written[split], "skipped", counts.Skipped[split])
	}

	return dir, counts, nil
}
