package eval

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/experiment"
	"github.com/dtnitsch/litchar/pkg/prompt"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/google/go-cmp/cmp"
)

// echoGenerator records prompts and answers with a numbered reply.
type echoGenerator struct {
	prompts []string
	failOn  int
}

func (g *echoGenerator) Generate(_ context.Context, p string) (string, error) {
	g.prompts = append(g.prompts, p)
	if g.failOn > 0 && len(g.prompts) == g.failOn {
		return "", errors.New("endpoint unavailable")
	}
	return "out" + string(rune('0'+len(g.prompts))), nil
}

var sample = models.Sample{
	Book:      "Emma",
	Character: "Emma Woodhouse",
	Input:     "one two three\n\nfour five six\n\nseven eight nine",
}

func TestPredict_Truncate(t *testing.T) {
	gen := &echoGenerator{}
	p := &Predictor{
		Method:         prompt.MethodTruncate,
		Templates:      prompt.Set{General: "Describe {character}.\n{context}"},
		TruncateLength: 6,
		Tokenizer:      tokenizer.Whitespace{},
		Generator:      gen,
	}

	pred, err := p.Predict(context.Background(), sample)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	want := experiment.Prediction{Book: "Emma", Character: "Emma Woodhouse", Output: "out1"}
	if diff := cmp.Diff(want, pred); diff != "" {
		t.Errorf("Predict() mismatch (-want +got):\n%s", diff)
	}
	wantPrompt := "Describe Emma Woodhouse.\none two three\n\nfour five six"
	if diff := cmp.Diff([]string{wantPrompt}, gen.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestPredict_Hierarchical(t *testing.T) {
	gen := &echoGenerator{}
	p := &Predictor{
		Method: prompt.MethodHierarchical,
		Templates: prompt.Set{
			General: "{character}: {context}",
			Merge:   "{character} <- {descriptions}",
		},
		TruncateLength: 6,
		Tokenizer:      tokenizer.Whitespace{},
		Generator:      gen,
	}

	pred, err := p.Predict(context.Background(), sample)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	want := experiment.Prediction{
		Book:           "Emma",
		Character:      "Emma Woodhouse",
		SegmentOutputs: []string{"out1", "out2"},
		Output:         "out3",
	}
	if diff := cmp.Diff(want, pred); diff != "" {
		t.Errorf("Predict() mismatch (-want +got):\n%s", diff)
	}
	wantPrompts := []string{
		"Emma Woodhouse: one two three\n\nfour five six",
		"Emma Woodhouse: seven eight nine",
		"Emma Woodhouse <- out1\n\nout2",
	}
	if diff := cmp.Diff(wantPrompts, gen.prompts); diff != "" {
		t.Errorf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPredictor_UnknownMethod(t *testing.T) {
	if _, err := NewPredictor("beam", "description", 100, nil, &echoGenerator{}); !errors.Is(err, prompt.ErrUnknownMethod) {
		t.Errorf("NewPredictor() error = %v, want ErrUnknownMethod", err)
	}
}

func TestRun(t *testing.T) {
	cfg, err := models.ParseConfig([]byte("data_params:\n  data_path: data\neval_params:\n  method: truncate\n"))
	if err != nil {
		t.Fatal(err)
	}
	exp, err := experiment.Create(t.TempDir(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer exp.Close()

	p, err := NewPredictor(prompt.MethodTruncate, "description", 100, tokenizer.Words{}, &echoGenerator{failOn: 2})
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	err = Run(context.Background(), p, []models.Sample{sample, sample, sample}, exp, logger)
	if err == nil || !strings.Contains(err.Error(), "sample 1") {
		t.Fatalf("Run() error = %v, want failure on sample 1", err)
	}

	data, err := os.ReadFile(filepath.Join(exp.Dir, experiment.PredictionsFile))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"book":"Emma","character":"Emma Woodhouse","output":"out1"}` + "\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("preds.jsonl mismatch (-want +got):\n%s", diff)
	}
}
