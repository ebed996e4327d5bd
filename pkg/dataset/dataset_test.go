package dataset

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/google/go-cmp/cmp"
)

func membership(splits map[Split][]int64) Membership {
	m := make(Membership)
	for s, ids := range splits {
		set := make(map[int64]struct{})
		for _, id := range ids {
			set[id] = struct{}{}
		}
		m[s] = set
	}
	return m
}

func TestSplitRecords(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"character":"Macbeth","description":"A general."}`,
		`{"id":2,"character":"Hamlet","description":"A prince."}`,
		``,
		`{"id":3,"character":"Emma","description":"A matchmaker."}`,
		`{"id":4,"character":"Ahab","description":"A captain."}`,
		`{"character":"Nobody"}`,
		`{"id":5,"character":"Jane","description":"A governess."}`,
	}, "\n")
	m := membership(map[Split][]int64{
		Train: {1, 5},
		Val:   {2, 5},
		Test:  {3},
	})

	bufs := map[Split]*bytes.Buffer{Train: {}, Val: {}, Test: {}}
	outputs := map[Split]io.Writer{Train: bufs[Train], Val: bufs[Val], Test: bufs[Test]}

	counts, err := SplitRecords(strings.NewReader(input), m, outputs)
	if err != nil {
		t.Fatalf("SplitRecords() error: %v", err)
	}

	want := map[Split]string{
		Train: `{"id":1,"character":"Macbeth","description":"A general."}` + "\n" +
			`{"id":5,"character":"Jane","description":"A governess."}` + "\n",
		Val:  `{"id":2,"character":"Hamlet","description":"A prince."}` + "\n",
		Test: `{"id":3,"character":"Emma","description":"A matchmaker."}` + "\n",
	}
	for _, s := range Splits {
		if diff := cmp.Diff(want[s], bufs[s].String()); diff != "" {
			t.Errorf("%s output mismatch (-want +got):\n%s", s, diff)
		}
	}
	if diff := cmp.Diff(map[Split]int{Train: 2, Val: 1, Test: 1}, counts.Records); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	if counts.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", counts.Dropped)
	}
	if counts.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", counts.Conflicts)
	}
}

// Every record lands in exactly the split holding its id, and in no more
// than one output.
func TestSplitRecords_Partition(t *testing.T) {
	m := membership(map[Split][]int64{Train: {0, 3, 6, 9}, Val: {1, 4, 7}, Test: {2, 5}})

	var input strings.Builder
	for i := 0; i < 30; i++ {
		input.WriteString(`{"id":` + string(rune('0'+i%10)) + `}` + "\n")
	}

	bufs := map[Split]*bytes.Buffer{Train: {}, Val: {}, Test: {}}
	outputs := map[Split]io.Writer{Train: bufs[Train], Val: bufs[Val], Test: bufs[Test]}
	counts, err := SplitRecords(strings.NewReader(input.String()), m, outputs)
	if err != nil {
		t.Fatal(err)
	}

	total := 0
	for _, s := range Splits {
		for _, line := range strings.Split(strings.TrimSpace(bufs[s].String()), "\n") {
			if line == "" {
				continue
			}
			id := int64(line[6] - '0')
			if got, _, _ := m.Assign(id); got != s {
				t.Errorf("record %s written to %s", line, s)
			}
			total++
		}
	}
	if total+counts.Dropped != 30 {
		t.Errorf("written %d + dropped %d != 30", total, counts.Dropped)
	}
	if counts.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3 (id 8)", counts.Dropped)
	}
}

func TestSplitRecords_InvalidJSON(t *testing.T) {
	_, err := SplitRecords(strings.NewReader("{not json}\n"), Membership{}, nil)
	if err == nil {
		t.Fatal("expected error for invalid record")
	}
}

func TestSplitFile(t *testing.T) {
	dir := t.TempDir()
	splitDir := filepath.Join(dir, "splits")
	if err := os.MkdirAll(splitDir, 0755); err != nil {
		t.Fatal(err)
	}
	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(splitDir, "train.tsv"), "BookId\tTitle\tAuthor\tUrl\n1\tMacbeth\tShakespeare\thttps://www.litcharts.com/lit/macbeth\n")
	write(filepath.Join(splitDir, "val.tsv"), "BookId\tTitle\tAuthor\tUrl\n2\tHamlet\tShakespeare\thttps://www.litcharts.com/lit/hamlet\n")
	write(filepath.Join(splitDir, "test.tsv"), "BookId\tTitle\tAuthor\tUrl\n")
	dataPath := filepath.Join(dir, "description_data.jsonl")
	write(dataPath, "{\"id\":1}\n{\"id\":2}\n{\"id\":2}\n")

	out := filepath.Join(dir, "out")
	counts, err := SplitFile(dataPath, splitDir, out)
	if err != nil {
		t.Fatalf("SplitFile() error: %v", err)
	}
	if counts.Records[Train] != 1 || counts.Records[Val] != 2 || counts.Records[Test] != 0 {
		t.Errorf("counts = %+v", counts.Records)
	}
	data, err := os.ReadFile(filepath.Join(out, "val.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\"id\":2}\n{\"id\":2}\n" {
		t.Errorf("val.jsonl = %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, "test.jsonl")); err != nil {
		t.Errorf("test.jsonl not created: %v", err)
	}
}

func TestSplitFile_MissingMembership(t *testing.T) {
	if _, err := SplitFile("unused.jsonl", t.TempDir(), t.TempDir()); err == nil {
		t.Fatal("expected error when split files are missing")
	}
}

func TestReadMembership_IDColumnOnly(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"train.tsv": "BookId\tTitle\n1\tMacbeth\n",
		"val.tsv":   "BookId\tTitle\tAuthor\tUrl\n98\tHamlet\tShakespeare\t\n",
		"test.tsv":  "BookId\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	m, err := ReadMembership(dir)
	if err != nil {
		t.Fatalf("ReadMembership() error: %v", err)
	}
	tests := []struct {
		id   int64
		want Split
	}{
		{1, Train},
		{98, Val},
	}
	for _, tt := range tests {
		got, ok, _ := m.Assign(tt.id)
		if !ok || got != tt.want {
			t.Errorf("Assign(%d) = %q, %v; want %q, true", tt.id, got, ok, tt.want)
		}
	}
}

type onlyFilter struct{ keep string }

func (f onlyFilter) Keep(text string) bool { return strings.Contains(text, f.keep) }

func TestFilter(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"description":"Too short."}`,
		`{"id":2,"description":"A Scottish general who murders the king to take the crown."}`,
		`{"id":3,"analysis":"Wrong field entirely, though long enough to pass."}`,
		`{"id":4,"description":"A Danish prince who feigns madness while plotting revenge."}`,
		`{"id":5,"description":12}`,
	}, "\n")

	tests := []struct {
		name     string
		opts     FilterOptions
		wantIDs  string
		wantKept int
	}{
		{
			name:     "token threshold",
			opts:     FilterOptions{Field: "description", MinTokens: 3, Tokenizer: tokenizer.Words{}},
			wantIDs:  `{"id":2,`,
			wantKept: 2,
		},
		{
			name:     "threshold is strict",
			opts:     FilterOptions{Field: "description", MinTokens: 3, Tokenizer: tokenizer.Whitespace{}},
			wantKept: 2,
		},
		{
			name:     "language filter",
			opts:     FilterOptions{Field: "description", MinTokens: 3, Language: onlyFilter{keep: "Danish"}},
			wantIDs:  `{"id":4,`,
			wantKept: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			counts, err := Filter(strings.NewReader(input), &out, tt.opts)
			if err != nil {
				t.Fatalf("Filter() error: %v", err)
			}
			if counts.Kept != tt.wantKept {
				t.Errorf("Kept = %d, want %d", counts.Kept, tt.wantKept)
			}
			if counts.NoField != 2 {
				t.Errorf("NoField = %d, want 2", counts.NoField)
			}
			if tt.wantIDs != "" && !strings.HasPrefix(out.String(), tt.wantIDs) {
				t.Errorf("output starts %q, want prefix %q", out.String(), tt.wantIDs)
			}
		})
	}
}

func TestFilteredPath(t *testing.T) {
	got := FilteredPath("/data/description/description_data.jsonl", "/out", 50)
	if want := filepath.Join("/out", "description_data-filtered-50.jsonl"); got != want {
		t.Errorf("FilteredPath() = %q, want %q", got, want)
	}
}

func TestFilterFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "analysis_data.jsonl")
	if err := os.WriteFile(in, []byte(`{"id":1,"analysis":"one two three four five"}`+"\n"+`{"id":2,"analysis":"one"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, counts, err := FilterFile(in, filepath.Join(dir, "filtered"), FilterOptions{Field: "analysis", MinTokens: 2})
	if err != nil {
		t.Fatalf("FilterFile() error: %v", err)
	}
	if filepath.Base(out) != "analysis_data-filtered-2.jsonl" {
		t.Errorf("output path = %q", out)
	}
	if counts.Kept != 1 || counts.TooShort != 1 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestLanguageFilter(t *testing.T) {
	f, err := NewLanguageFilter("en", []string{"en", "fr", "de"})
	if err != nil {
		t.Fatalf("NewLanguageFilter() error: %v", err)
	}
	if !f.Keep("It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness.") {
		t.Error("English text was dropped")
	}
	if f.Keep("C'était le meilleur des temps, c'était le pire des temps, c'était l'âge de la sagesse, c'était l'âge de la folie.") {
		t.Error("French text was kept")
	}

	if _, err := NewLanguageFilter("xx", nil); err == nil {
		t.Error("expected error for unknown language code")
	}
}
