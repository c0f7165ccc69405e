// Package activity keeps a CSV trail of workflow outcomes for diagnostics.
package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	User      string
	Action    string // "submit", "list", "login", ...
	Outcome   string // "ok" or a failure kind
	BillID    string
	Details   string
}

// Columns is the CSV header of the activity log.
var Columns = []string{"timestamp", "user", "action", "outcome", "bill_id", "details"}

func (e Entry) record() []string {
	return []string{e.Timestamp.UTC().Format(time.RFC3339), e.User, e.Action, e.Outcome, e.BillID, e.Details}
}

func parseRecord(rec []string) (Entry, error) {
	if len(rec) != len(Columns) {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(rec))
	}
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[0], err)
	}
	return Entry{Timestamp: ts, User: rec[1], Action: rec[2], Outcome: rec[3], BillID: rec[4], Details: rec[5]}, nil
}

// Log is an append-only CSV file. Writes from one process are serialized.
type Log struct {
	mu   sync.Mutex
	path string
}

// Open returns the log stored at path. The file is created on first Record.
func Open(path string) *Log {
	return &Log{path: path}
}

// Record appends entries, writing the header when the file is new.
func (l *Log) Record(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating activity log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat activity log: %w", err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		_ = w.Write(Columns)
	}
	for _, e := range entries {
		_ = w.Write(e.record())
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing activity log: %w", err)
	}
	return nil
}

// Entries returns every entry in file order. A missing file has none.
func (l *Log) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Columns)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log: %w", err)
	}
	if len(rows) > 0 && slices.Equal(rows[0], Columns) {
		rows = rows[1:]
	}

	entries := make([]Entry, 0, len(rows))
	for i, rec := range rows {
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("activity log row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Tail returns the last n entries, or all of them when n <= 0.
func (l *Log) Tail(n int) ([]Entry, error) {
	entries, err := l.Entries()
	if err != nil || n <= 0 || len(entries) <= n {
		return entries, err
	}
	return entries[len(entries)-n:], nil
}
