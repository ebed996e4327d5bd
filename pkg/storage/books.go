package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dtnitsch/litchar/models"
)

// ErrMissingColumn is returned when a book list lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var bookHeader = []string{"BookId", "Title", "Author", "Url"}

func newTSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

func newTSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

// ReadBooks parses a tab-separated book list. The id column may be named
// Id or BookId; a list without one (e.g. catalog output) gets zero ids.
func ReadBooks(r io.Reader) ([]models.Book, error) {
	cr := newTSVReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := columns(header)
	idCol, hasID := idColumn(cols)
	urlCol, ok := cols["Url"]
	if !ok {
		return nil, fmt.Errorf("%w: Url", ErrMissingColumn)
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var books []models.Book
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if urlCol >= len(rec) || strings.TrimSpace(rec[urlCol]) == "" {
			continue
		}

		b := models.Book{
			Title:  field(rec, "Title"),
			Author: field(rec, "Author"),
			URL:    strings.TrimSpace(rec[urlCol]),
		}
		if hasID && idCol < len(rec) {
			id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid book id on line %d: %w", line, err)
			}
			b.ID = id
		}
		books = append(books, b)
	}
	return books, nil
}

// ReadBookIDs reads only the id column of a book list. Rows with an empty
// id are skipped.
func ReadBookIDs(r io.Reader) ([]int64, error) {
	cr := newTSVReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idCol, ok := idColumn(columns(header))
	if !ok {
		return nil, fmt.Errorf("%w: Id", ErrMissingColumn)
	}

	var ids []int64
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if idCol >= len(rec) || strings.TrimSpace(rec[idCol]) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(rec[idCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid book id on line %d: %w", line, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func columns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return cols
}

func idColumn(cols map[string]int) (int, bool) {
	if i, ok := cols["BookId"]; ok {
		return i, true
	}
	i, ok := cols["Id"]
	return i, ok
}

// ReadBooksFile opens path and parses it with ReadBooks.
func ReadBooksFile(path string) ([]models.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open book list: %w", err)
	}
	defer f.Close()
	return ReadBooks(f)
}

// WriteBooks writes books as a tab-separated list with a BookId column.
func WriteBooks(w io.Writer, books []models.Book) error {
	cw := newTSVWriter(w)
	if err := cw.Write(bookHeader); err != nil {
		return err
	}
	for _, b := range books {
		if err := cw.Write(bookRow(b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func bookRow(b models.Book) []string {
	return []string{strconv.FormatInt(b.ID, 10), b.Title, b.Author, b.URL}
}
