package finetune

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dtnitsch/litchar/models"
	"github.com/dtnitsch/litchar/pkg/dataset"
	"github.com/dtnitsch/litchar/pkg/experiment"
	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/google/go-cmp/cmp"
)

func TestBuildExample(t *testing.T) {
	s := models.Sample{Book: "Emma", Character: "Emma", Input: "one two\n\nthree four five six"}
	ex := BuildExample("Describe {character}.\n\n{context}", s, "A matchmaker.", tokenizer.Whitespace{}, 4)

	want := Example{Messages: []Message{
		{Role: "user", Content: "Describe Emma.\n\none two"},
		{Role: "assistant", Content: "A matchmaker."},
	}}
	if diff := cmp.Diff(want, ex); diff != "" {
		t.Errorf("BuildExample() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "splits")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	write := func(path, data string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(dataset.SplitPath(dataDir, dataset.Train),
		`{"book":"Emma","character":"Emma","input":"Chapter I","description":"A matchmaker."}`+"\n"+
			`{"book":"Emma","character":"Harriet","input":"Chapter I"}`+"\n")
	write(dataset.SplitPath(dataDir, dataset.Val),
		`{"book":"Emma","character":"Mr. Knightley","input":"Chapter I","description":"A neighbour."}`+"\n")
	promptPath := filepath.Join(dir, "prompt.txt")
	write(promptPath, "Describe {character}: {context}")

	cfg, err := models.ParseConfig([]byte(fmt.Sprintf(`
data_params:
  data_path: %s
  prompt_path: %s
train_params:
  model_name: meta-llama/Meta-Llama-3-8B-Instruct
  max_input_length: 8192
  truncate_length: 100
  apply_lora: false
  seed: 42
experiment_params:
  save_experiment: %s
  model: llama3
  experiment_name: baseline
`, dataDir, promptPath, filepath.Join(dir, "runs"))))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	seedDir, counts, err := Prepare(cfg, tokenizer.Words{}, logger)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if want := filepath.Join(dir, "runs", "llama3", "baseline", "seed_42"); seedDir != want {
		t.Errorf("dir = %q, want %q", seedDir, want)
	}
	if counts.Written[dataset.Train] != 1 || counts.Skipped[dataset.Train] != 1 || counts.Written[dataset.Val] != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	train, err := os.ReadFile(filepath.Join(seedDir, "train.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"messages":[{"role":"user","content":"Describe Emma: Chapter I"},{"role":"assistant","content":"A matchmaker."}]}` + "\n"
	if diff := cmp.Diff(want, string(train)); diff != "" {
		t.Errorf("train.jsonl mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(seedDir, experiment.ConfigFile)); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}

func TestPrepare_MissingKey(t *testing.T) {
	cfg, err := models.ParseConfig([]byte("train_params:\n  model_name: llama\n"))
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = Prepare(cfg, nil, slog.Default())
	if !errors.Is(err, models.ErrMissingKey) {
		t.Errorf("Prepare() error = %v, want ErrMissingKey", err)
	}
}
