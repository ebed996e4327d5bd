// Package dataset holds the split and filter commands.
package dataset

import (
	"os"
	"strings"

	"github.com/dtnitsch/litchar/internal/common"
	dspkg "github.com/dtnitsch/litchar/pkg/dataset"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/urfave/cli/v2"
)

func SplitAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	counts, err := dspkg.SplitFile(c.String("dataset"), c.String("split-dir"), c.String("save-path"))
	if err != nil {
		logger.Error("split failed", "error", err)
		os.Exit(2)
	}

	logger.Info("Split complete",
		"train", counts.Records[dspkg.Train],
		"val", counts.Records[dspkg.Val],
		"test", counts.Records[dspkg.Test],
		"dropped", counts.Dropped,
		"conflicts", counts.Conflicts,
	)
	if counts.Conflicts > 0 {
		logger.Warn("Books listed in more than one split", "count", counts.Conflicts)
	}
	return nil
}

func FilterAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	tok, err := tokenizer.ByName(c.String("tokenizer"))
	if err != nil {
		logger.Error("invalid tokenizer", "error", err)
		os.Exit(2)
	}

	opts := dspkg.FilterOptions{
		Field:     c.String("field"),
		MinTokens: c.Int("min-tokens"),
		Tokenizer: tok,
	}
	if lang := c.String("language"); lang != "" {
		var candidates []string
		if cs := c.String("candidates"); cs != "" {
			candidates = strings.Split(cs, ",")
		}
		opts.Language, err = dspkg.NewLanguageFilter(lang, candidates)
		if err != nil {
			logger.Error("invalid language filter", "error", err)
			os.Exit(2)
		}
	}

	path, counts, err := dspkg.FilterFile(c.String("dataset"), c.String("save-path"), opts)
	if err != nil {
		logger.Error("filter failed", "error", err)
		os.Exit(2)
	}

	logger.Info("Filter complete",
		"path", path,
		"kept", counts.Kept,
		"too_short", counts.TooShort,
		"language", counts.Language,
		"no_field", counts.NoField,
	)
	return nil
}
