// Package dataset turns scraped record logs into training data: it routes
// records into train/val/test files by book id and filters out records
// that are too short or in the wrong language.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dtnitsch/litchar/pkg/storage"
)

// Split names one partition of the dataset.
type Split string

const (
	Train Split = "train"
	Val   Split = "val"
	Test  Split = "test"
)

// Splits is the routing order: a record goes to the first split whose
// membership holds its id.
var Splits = []Split{Train, Val, Test}

// maxLine bounds a single JSON record.
const maxLine = 64 << 20

// Membership maps each split to the book ids assigned to it.
type Membership map[Split]map[int64]struct{}

// Assign returns the split for id and whether the id is in more than one.
func (m Membership) Assign(id int64) (split Split, ok bool, conflict bool) {
	for _, s := range Splits {
		if _, in := m[s][id]; !in {
			continue
		}
		if ok {
			return split, true, true
		}
		split, ok = s, true
	}
	return split, ok, false
}

// ReadMembership reads <dir>/train.tsv, val.tsv and test.tsv. Each needs a
// BookId (or Id) column.
func ReadMembership(dir string) (Membership, error) {
	m := make(Membership, len(Splits))
	for _, s := range Splits {
		ids, err := readIDs(filepath.Join(dir, string(s)+".tsv"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s split: %w", s, err)
		}
		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		m[s] = set
	}
	return m, nil
}

func readIDs(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return storage.ReadBookIDs(f)
}

// Counts reports where records went.
type Counts struct {
	Records   map[Split]int
	Dropped   int // id in no split, or no id at all
	Conflicts int // id in several splits; routed to the first
}

type recordID struct {
	ID *int64 `json:"id"`
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	return sc
}

// writeLine writes line and a newline. line may alias the scanner's
// buffer, so it is never appended to.
func writeLine(w io.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

// SplitRecords copies each JSON line of r verbatim to the writer of its
// split. A record reaches at most one output.
func SplitRecords(r io.Reader, m Membership, outputs map[Split]io.Writer) (Counts, error) {
	counts := Counts{Records: make(map[Split]int, len(Splits))}
	sc := newScanner(r)
	for line := 1; sc.Scan(); line++ {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec recordID
		if err := json.Unmarshal(raw, &rec); err != nil {
			return counts, fmt.Errorf("invalid record on line %d: %w", line, err)
		}
		if rec.ID == nil {
			counts.Dropped++
			continue
		}

		split, ok, conflict := m.Assign(*rec.ID)
		if !ok {
			counts.Dropped++
			continue
		}
		if conflict {
			counts.Conflicts++
		}

		w := outputs[split]
		if w == nil {
			continue
		}
		if err := writeLine(w, raw); err != nil {
			return counts, fmt.Errorf("failed to write %s record: %w", split, err)
		}
		counts.Records[split]++
	}
	if err := sc.Err(); err != nil {
		return counts, fmt.Errorf("failed to read records: %w", err)
	}
	return counts, nil
}

// SplitFile splits datasetPath using the membership files in splitDir and
// writes <saveDir>/<split>.jsonl.
func SplitFile(datasetPath, splitDir, saveDir string) (Counts, error) {
	m, err := ReadMembership(splitDir)
	if err != nil {
		return Counts{}, err
	}

	in, err := os.Open(datasetPath)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(saveDir, 0755); err != nil {
		return Counts{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputs := make(map[Split]io.Writer, len(Splits))
	var files []*os.File
	var writers []*bufio.Writer
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, s := range Splits {
		f, err := os.Create(SplitPath(saveDir, s))
		if err != nil {
			return Counts{}, fmt.Errorf("failed to create %s output: %w", s, err)
		}
		files = append(files, f)
		w := bufio.NewWriter(f)
		writers = append(writers, w)
		outputs[s] = w
	}

	counts, err := SplitRecords(in, m, outputs)
	if err != nil {
		return counts, err
	}
	for _, w := range writers {
		if err := w.Flush(); err != nil {
			return counts, fmt.Errorf("failed to flush output: %w", err)
		}
	}
	return counts, nil
}
