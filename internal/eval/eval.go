// Package eval generates character descriptions for a dataset split and
// records them in a new experiment directory.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/chunker"
	"github.com/dtnitsch/litchar/pkg/experiment"
	"github.com/dtnitsch/litchar/pkg/generate"
	"github.com/dtnitsch/litchar/pkg/prompt"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
)

// Predictor turns one sample into a prediction with a single eval method.
type Predictor struct {
	Method         string
	Templates      prompt.Set
	TruncateLength int
	Tokenizer      tokenizer.Tokenizer
	Generator      generate.Generator
}

// NewPredictor loads the built-in templates for method and task.
func NewPredictor(method, task string, truncateLength int, tok tokenizer.Tokenizer, gen generate.Generator) (*Predictor, error) {
	set, err := prompt.Load(method, task)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		tok = tokenizer.Words{}
	}
	return &Predictor{
		Method:         method,
		Templates:      set,
		TruncateLength: truncateLength,
		Tokenizer:      tok,
		Generator:      gen,
	}, nil
}

// Predict runs the configured method on s.
func (p *Predictor) Predict(ctx context.Context, s models.Sample) (experiment.Prediction, error) {
	pred := experiment.Prediction{Book: s.Book, Character: s.Character}

	switch p.Method {
	case prompt.MethodTruncate:
		excerpt := chunker.Truncate(s.Input, p.Tokenizer, p.TruncateLength)
		out, err := p.Generator.Generate(ctx, prompt.Format(p.Templates.General, map[string]string{
			"character": s.Character,
			"context":   excerpt,
		}))
		if err != nil {
			return pred, err
		}
		pred.Output = out

	case prompt.MethodHierarchical:
		segments := chunker.Segment(s.Input, p.Tokenizer, p.TruncateLength)
		outputs := make([]string, 0, len(segments))
		for i, segment := range segments {
			out, err := p.Generator.Generate(ctx, prompt.Format(p.Templates.General, map[string]string{
				"character": s.Character,
				"context":   segment,
			}))
			if err != nil {
				return pred, fmt.Errorf("segment %d: %w", i, err)
			}
			outputs = append(outputs, out)
		}
		out, err := p.Generator.Generate(ctx, prompt.Format(p.Templates.Merge, map[string]string{
			"character":    s.Character,
			"descriptions": strings.Join(outputs, "\n\n"),
		}))
		if err != nil {
			return pred, fmt.Errorf("merge: %w", err)
		}
		pred.SegmentOutputs = outputs
		pred.Output = out

	default:
		return pred, fmt.Errorf("%w: %q", prompt.ErrUnknownMethod, p.Method)
	}

	return pred, nil
}

// Run predicts every sample in order, appending each prediction to exp as
// soon as it is made. A failed sample stops the run.
func Run(ctx context.Context, p *Predictor, samples []models.Sample, exp *experiment.Experiment, logger *slog.Logger) error {
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		pred, err := p.Predict(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to predict sample %d (%s / %s): %w", i, s.Book, s.Character, err)
		}
		if err := exp.Append(pred); err != nil {
			return err
		}
		logger.Info("Predicted", "sample", i, "book", s.Book, "character", s.Character)
		logger.Debug("Prediction", "sample", i, "output", pred.Output)
	}
	return nil
}
