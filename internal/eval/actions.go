package eval

import (
	"context"
	"errors"
	"os"

	"github.com/dtnitsch/litchar/internal/common"
	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/dataset"
	"github.com/dtnitsch/litchar/pkg/experiment"
	"github.com/dtnitsch/litchar/pkg/generate"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/urfave/cli/v2"
)

func EvalAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.ValidateEval(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	params := cfg.EvalParams

	tok, err := tokenizer.ByName(c.String("tokenizer"))
	if err != nil {
		logger.Error("invalid tokenizer", "error", err)
		os.Exit(2)
	}

	model := params.ModelName
	if params.CheckpointPath != nil && *params.CheckpointPath != "" {
		model = *params.CheckpointPath
	}
	gen := generate.NewClient(model, os.Getenv(generate.APIKeyEnv), cfg.GenerateParams, logger)

	predictor, err := NewPredictor(params.Method, params.Task, params.TruncateLength, tok, gen)
	if err != nil {
		logger.Error("invalid eval method", "error", err, "method", params.Method)
		os.Exit(2)
	}

	samples, err := dataset.ReadSamples(dataset.SplitPath(cfg.DataParams.DataPath, dataset.Split(params.Split)))
	if err != nil {
		logger.Error("failed to read samples", "error", err)
		os.Exit(2)
	}

	exp, err := experiment.Create(params.SavePath, cfg)
	if err != nil {
		logger.Error("failed to create experiment", "error", err)
		os.Exit(2)
	}
	defer exp.Close()

	logger.Info("Eval started", "experiment", exp.Dir, "model", model, "method", params.Method, "samples", len(samples))

	if err := Run(c.Context, predictor, samples, exp, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Eval interrupted", "experiment", exp.Dir, "predictions", exp.Count())
			os.Exit(1)
		}
		logger.Error("eval failed", "error", err, "experiment", exp.Dir, "predictions", exp.Count())
		os.Exit(2)
	}

	logger.Info("Eval complete", "experiment", exp.Dir, "predictions", exp.Count())
	return nil
}
