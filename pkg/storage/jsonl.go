package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RecordLog appends JSON lines to a file, flushing after every record so an
// interrupted run keeps everything written before it.
type RecordLog struct {
	f *os.File
	w *bufio.Writer
	n int
}

// OpenRecordLog opens path for appending, creating it and its directory.
func OpenRecordLog(path string) (*RecordLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record log: %w", err)
	}
	return &RecordLog{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes v as one JSON line and flushes it.
func (l *RecordLog) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return l.AppendRaw(data)
}

// AppendRaw writes an already-encoded line and flushes it.
func (l *RecordLog) AppendRaw(line []byte) error {
	if _, err := l.w.Write(line); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}
	l.n++
	return nil
}

// Count is the number of records appended through this log.
func (l *RecordLog) Count() int { return l.n }

func (l *RecordLog) Close() error {
	if err := l.w.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
