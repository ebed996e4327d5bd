// Package models defines data structures for configuration and scraped records.
package models

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CollectConfig holds runtime configuration for a scrape job.
// All values come from CLI flags, not external config files.
type CollectConfig struct {
	DataFile       string
	SavePath       string
	Kind           Kind
	MaxAttempts    int
	ExpBase        float64
	BackoffUnit    time.Duration
	SnapshotCutoff time.Time
}

var ErrMissingKey = errors.New("missing required config key")

// DataParams is the data_params group.
type DataParams struct {
	DataPath   string `yaml:"data_path"`
	PromptPath string `yaml:"prompt_path,omitempty"`
}

// EvalParams is the eval_params group.
type EvalParams struct {
	ModelName      string  `yaml:"model_name"`
	CheckpointPath *string `yaml:"checkpoint_path"`
	TruncateLength int     `yaml:"truncate_length"`
	Method         string  `yaml:"method"`
	Split          string  `yaml:"split"`
	SavePath       string  `yaml:"save_path"`
	Task           string  `yaml:"task,omitempty"`
}

// GenerateParams is the generate_params group, forwarded to the model endpoint.
type GenerateParams struct {
	MaxNewTokens int     `yaml:"max_new_tokens,omitempty"`
	Temperature  float64 `yaml:"temperature,omitempty"`
	TopP         float64 `yaml:"top_p,omitempty"`
	DoSample     bool    `yaml:"do_sample,omitempty"`
	BaseURL      string  `yaml:"base_url,omitempty"`
}

// TrainParams is the train_params group.
type TrainParams struct {
	ModelName                 string  `yaml:"model_name"`
	MaxInputLength            int     `yaml:"max_input_length"`
	TruncateLength            int     `yaml:"truncate_length"`
	ApplyLora                 bool    `yaml:"apply_lora"`
	Seed                      int     `yaml:"seed"`
	BatchSize                 int     `yaml:"batch_size,omitempty"`
	GradientAccumulationSteps int     `yaml:"gradient_accumulation_steps,omitempty"`
	MaxSteps                  int     `yaml:"max_steps,omitempty"`
	WarmUpSteps               int     `yaml:"warm_up_steps,omitempty"`
	LR                        float64 `yaml:"lr,omitempty"`
	LoggingSteps              int     `yaml:"logging_steps,omitempty"`
	WeightDecay               float64 `yaml:"weight_decay,omitempty"`
	SaveStrategy              string  `yaml:"save_strategy,omitempty"`
}

// ExperimentParams is the experiment_params group.
type ExperimentParams struct {
	SaveExperiment string `yaml:"save_experiment"`
	Model          string `yaml:"model"`
	ExperimentName string `yaml:"experiment_name"`
	WandbProject   string `yaml:"wandb_project,omitempty"`
}

// LoraParams is the lora_params group.
type LoraParams struct {
	R           int     `yaml:"r"`
	LoraAlpha   int     `yaml:"lora_alpha"`
	LoraDropout float64 `yaml:"lora_dropout"`
}

// ExperimentConfig is the structured config document consumed by the eval
// and finetune commands. Raw keeps the document as loaded so it can be
// snapshotted into the experiment directory unchanged.
type ExperimentConfig struct {
	DataParams       DataParams       `yaml:"data_params"`
	EvalParams       *EvalParams      `yaml:"eval_params,omitempty"`
	GenerateParams   GenerateParams   `yaml:"generate_params,omitempty"`
	TrainParams      *TrainParams     `yaml:"train_params,omitempty"`
	ExperimentParams ExperimentParams `yaml:"experiment_params,omitempty"`
	LoraParams       *LoraParams      `yaml:"lora_params,omitempty"`

	Raw map[string]any `yaml:"-"`
}

// LoadConfig reads a YAML config document.
func LoadConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML config document.
func ParseConfig(data []byte) (*ExperimentConfig, error) {
	var cfg ExperimentConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.Raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ValidateEval checks the keys the eval driver cannot run without.
func (c *ExperimentConfig) ValidateEval() error {
	if c.EvalParams == nil {
		return fmt.Errorf("%w: eval_params", ErrMissingKey)
	}
	return firstMissing(
		required{"data_params.data_path", c.DataParams.DataPath != ""},
		required{"eval_params.model_name", c.EvalParams.ModelName != ""},
		required{"eval_params.truncate_length", c.EvalParams.TruncateLength > 0},
		required{"eval_params.method", c.EvalParams.Method != ""},
		required{"eval_params.split", c.EvalParams.Split != ""},
		required{"eval_params.save_path", c.EvalParams.SavePath != ""},
	)
}

// ValidateTrain checks the keys the finetune driver cannot run without.
func (c *ExperimentConfig) ValidateTrain() error {
	if c.TrainParams == nil {
		return fmt.Errorf("%w: train_params", ErrMissingKey)
	}
	checks := []required{
		{"data_params.data_path", c.DataParams.DataPath != ""},
		{"data_params.prompt_path", c.DataParams.PromptPath != ""},
		{"train_params.model_name", c.TrainParams.ModelName != ""},
		{"train_params.max_input_length", c.TrainParams.MaxInputLength > 0},
		{"train_params.truncate_length", c.TrainParams.TruncateLength > 0},
		{"experiment_params.save_experiment", c.ExperimentParams.SaveExperiment != ""},
		{"experiment_params.model", c.ExperimentParams.Model != ""},
		{"experiment_params.experiment_name", c.ExperimentParams.ExperimentName != ""},
	}
	if c.TrainParams.ApplyLora {
		checks = append(checks, required{"lora_params", c.LoraParams != nil})
	}
	return firstMissing(checks...)
}

type required struct {
	key     string
	present bool
}

func firstMissing(checks ...required) error {
	for _, r := range checks {
		if !r.present {
			return fmt.Errorf("%w: %s", ErrMissingKey, r.key)
		}
	}
	return nil
}
