package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dtnitsch/litchar/pkg/tokenizer"
	"github.com/pemistahl/lingua-go"
)

// LanguageFilter decides whether text is in the wanted language.
type LanguageFilter interface {
	Keep(text string) bool
}

// DefaultCandidates are the languages the detector chooses between when
// no candidate list is given.
var DefaultCandidates = []string{"en", "fr", "de", "es", "it", "pt", "nl"}

type linguaFilter struct {
	detector lingua.LanguageDetector
	want     lingua.Language
}

// NewLanguageFilter keeps text detected as the language with ISO 639-1
// code want, choosing among candidates (DefaultCandidates if empty).
func NewLanguageFilter(want string, candidates []string) (LanguageFilter, error) {
	wantLang, err := languageFromCode(want)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}

	langs := []lingua.Language{wantLang}
	for _, c := range candidates {
		l, err := languageFromCode(c)
		if err != nil {
			return nil, err
		}
		if l != wantLang {
			langs = append(langs, l)
		}
	}
	if len(langs) < 2 {
		return nil, fmt.Errorf("language filter needs a candidate other than %q", want)
	}

	detector := lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build()
	return &linguaFilter{detector: detector, want: wantLang}, nil
}

func languageFromCode(code string) (lingua.Language, error) {
	code = strings.TrimSpace(code)
	for _, lang := range lingua.AllLanguages() {
		if strings.EqualFold(lang.IsoCode639_1().String(), code) {
			return lang, nil
		}
	}
	return lingua.Unknown, fmt.Errorf("unknown language code %q", code)
}

func (f *linguaFilter) Keep(text string) bool {
	lang, ok := f.detector.DetectLanguageOf(text)
	return ok && lang == f.want
}

// FilterOptions configures Filter.
type FilterOptions struct {
	// Field holds the text to measure, e.g. "description" or "analysis".
	Field string

	// MinTokens: records need strictly more tokens than this.
	MinTokens int

	Tokenizer tokenizer.Tokenizer

	// Language is optional.
	Language LanguageFilter
}

// FilterCounts reports how many records Filter kept and why others went.
type FilterCounts struct {
	Kept     int
	TooShort int
	Language int
	NoField  int
}

// Filter copies the JSON lines of r whose Field text passes the token
// threshold and, if set, the language filter.
func Filter(r io.Reader, w io.Writer, opts FilterOptions) (FilterCounts, error) {
	var counts FilterCounts
	tok := opts.Tokenizer
	if tok == nil {
		tok = tokenizer.Words{}
	}

	sc := newScanner(r)
	for line := 1; sc.Scan(); line++ {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rec); err != nil {
			return counts, fmt.Errorf("invalid record on line %d: %w", line, err)
		}
		var text string
		if field, ok := rec[opts.Field]; !ok || json.Unmarshal(field, &text) != nil {
			counts.NoField++
			continue
		}

		if tok.Count(text) <= opts.MinTokens {
			counts.TooShort++
			continue
		}
		if opts.Language != nil && !opts.Language.Keep(text) {
			counts.Language++
			continue
		}

		if err := writeLine(w, raw); err != nil {
			return counts, fmt.Errorf("failed to write record: %w", err)
		}
		counts.Kept++
	}
	if err := sc.Err(); err != nil {
		return counts, fmt.Errorf("failed to read records: %w", err)
	}
	return counts, nil
}

// FilteredPath is <outDir>/<stem>-filtered-<threshold>.jsonl.
func FilteredPath(datasetPath, outDir string, threshold int) string {
	stem := strings.TrimSuffix(filepath.Base(datasetPath), filepath.Ext(datasetPath))
	return filepath.Join(outDir, fmt.Sprintf("%s-filtered-%d.jsonl", stem, threshold))
}

// FilterFile filters datasetPath into FilteredPath(datasetPath, outDir,
// opts.MinTokens) and returns that path.
func FilterFile(datasetPath, outDir string, opts FilterOptions) (string, FilterCounts, error) {
	in, err := os.Open(datasetPath)
	if err != nil {
		return "", FilterCounts{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", FilterCounts{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := FilteredPath(datasetPath, outDir, opts.MinTokens)
	out, err := os.Create(outPath)
	if err != nil {
		return "", FilterCounts{}, fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()

	counts, err := Filter(in, out, opts)
	if err != nil {
		return "", counts, err
	}
	return outPath, counts, out.Sync()
}
