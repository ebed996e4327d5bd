package finetune

import (
	"os"

	"github.com/dtnitsch/litchar/internal/common"
	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/dataset"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/urfave/cli/v2"
)

func FinetuneAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}

	tok, err := tokenizer.ByName(c.String("tokenizer"))
	if err != nil {
		logger.Error("invalid tokenizer", "error", err)
		os.Exit(2)
	}

	dir, counts, err := Prepare(cfg, tok, logger)
	if err != nil {
		logger.Error("finetune data preparation failed", "error", err)
		os.Exit(2)
	}

	logger.Info("Finetune data ready",
		"dir", dir,
		"model", cfg.TrainParams.ModelName,
		"train", counts.Written[dataset.Train],
		"val", counts.Written[dataset.Val],
		"apply_lora", cfg.TrainParams.ApplyLora,
	)
	return nil
}
