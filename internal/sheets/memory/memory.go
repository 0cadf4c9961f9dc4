// Package memory is the in-process ReportWriter used when Google Sheets is
// not configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tithe/internal/core"
	ports "tithe/internal/sheets"
)

var (
	_ ports.ReportWriter = (*Writer)(nil)
	_ ports.ReportReader = (*Writer)(nil)
)

type Writer struct {
	mu     sync.Mutex
	tables map[string][][]string
	writes int
}

func New() *Writer {
	return &Writer{tables: make(map[string][][]string)}
}

// WriteTable stores a deep copy of rows under sheet.
func (w *Writer) WriteTable(_ context.Context, sheet string, rows [][]string) error {
	if sheet == "" {
		return fmt.Errorf("sheet name required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[sheet] = cloneRows(rows)
	w.writes++
	return nil
}

func (w *Writer) ReadTable(_ context.Context, sheet string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tables[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", sheet, core.ErrNotFound)
	}
	return cloneRows(rows), nil
}

// Sheets lists the sheet names written so far, sorted.
func (w *Writer) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.tables))
	for name := range w.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Writes counts WriteTable calls.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
