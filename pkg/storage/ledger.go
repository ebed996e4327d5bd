package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dtnitsch/litchar/models"
)

type ledgerKey struct {
	id  int64
	url string
}

// Ledger is the append-only list of book rows a job has finished. It is
// read once when opened and every Add is flushed to disk.
type Ledger struct {
	f    *os.File
	done map[ledgerKey]struct{}
}

// OpenLedger opens or creates the ledger at path. A new or empty file gets
// the header row.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	l := &Ledger{done: make(map[ledgerKey]struct{})}

	existing, err := os.Open(path)
	switch {
	case err == nil:
		books, rerr := ReadBooks(existing)
		existing.Close()
		if rerr != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", rerr)
		}
		for _, b := range books {
			l.done[ledgerKey{b.ID, b.URL}] = struct{}{}
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	l.f = f

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}
	if info.Size() == 0 {
		if err := l.write(bookHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

// Done reports whether the row was already processed.
func (l *Ledger) Done(b models.Book) bool {
	_, ok := l.done[ledgerKey{b.ID, b.URL}]
	return ok
}

// Len is the number of processed rows.
func (l *Ledger) Len() int { return len(l.done) }

// Add appends b and flushes it.
func (l *Ledger) Add(b models.Book) error {
	if err := l.write(bookRow(b)); err != nil {
		return err
	}
	l.done[ledgerKey{b.ID, b.URL}] = struct{}{}
	return nil
}

func (l *Ledger) write(row []string) error {
	cw := newTSVWriter(l.f)
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	return l.f.Sync()
}

func (l *Ledger) Close() error {
	return l.f.Close()
}
